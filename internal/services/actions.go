package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/blazehunter/internal/models"
)

// Actions accepted by the /api/admin endpoint.
const (
	ActionVerifyAdminKey     = "verify_admin_key"
	ActionBannerUpsert       = "manage_banner_upsert"
	ActionBannerDelete       = "manage_banner_delete"
	ActionManageHomeSettings = "manage_home_settings"
	ActionManageAdminAccess  = "manage_admin_access"
	ActionFetchBanners       = "fetch_banners"
	ActionFetchAdminList     = "fetch_admin_list"
	ActionFetchHomeSettings  = "fetch_home_settings"
)

// AdminRequest is the body of a forwarded admin call.
type AdminRequest struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params"`
}

// IDList decodes an id array whose elements may be numbers or numeric strings.
type IDList []int64

func (l *IDList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(IDList, 0, len(raw))
	for _, r := range raw {
		s := strings.Trim(string(bytes.TrimSpace(r)), `"`)
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %s", string(r))
		}
		out = append(out, id)
	}
	*l = out
	return nil
}

// RPCParams is the union of parameters the stored procedures take.
type RPCParams struct {
	Credentials
	ID             *int64  `json:"p_id"`
	Title          string  `json:"p_title"`
	URL            string  `json:"p_url"`
	BannerLink     string  `json:"p_banner_link"`
	NationKey      string  `json:"p_nation_key"`
	StartDate      string  `json:"p_start_date"`
	EndDate        string  `json:"p_end_date"`
	IDs            IDList  `json:"p_ids"`
	BgPcURL        string  `json:"p_bg_pc_url"`
	BgMobileURL    string  `json:"p_bg_mobile_url"`
	Action         string  `json:"p_action"`
	TargetEmail    string  `json:"p_target_email"`
	TargetRole     string  `json:"p_target_role"`
	TargetPassword *string `json:"p_target_password"`

	// FilterNationKey narrows fetch_banners.
	FilterNationKey string `json:"nation_key"`
}

// Item converts upsert parameters into a content item.
func (p RPCParams) Item() models.ContentItem {
	item := models.ContentItem{
		Title:      p.Title,
		URL:        p.URL,
		BannerLink: p.BannerLink,
		NationKey:  p.NationKey,
		StartDate:  p.StartDate,
		EndDate:    p.EndDate,
	}
	if p.ID != nil {
		item.ID = *p.ID
	}
	return item
}

// Target converts admin-management parameters into an AdminTarget.
func (p RPCParams) Target() AdminTarget {
	target := AdminTarget{Email: strings.TrimSpace(p.TargetEmail), Role: p.TargetRole}
	if p.TargetPassword != nil {
		target.Password = *p.TargetPassword
	}
	return target
}

// Dispatch runs one admin action against gw and returns the value to send
// back as the response body.
func Dispatch(ctx context.Context, gw Gateway, req AdminRequest) (any, error) {
	if strings.TrimSpace(req.Action) == "" {
		return nil, NewValidationError("action", "Missing action in request body")
	}

	var params RPCParams
	if len(bytes.TrimSpace(req.Params)) > 0 && !bytes.Equal(bytes.TrimSpace(req.Params), []byte("null")) {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, NewValidationError("params", "invalid params: "+err.Error())
		}
	}

	switch req.Action {
	case ActionVerifyAdminKey:
		return gw.VerifyAdminKey(ctx, params.Credentials)
	case ActionBannerUpsert:
		return gw.Upsert(ctx, params.Item(), params.Credentials)
	case ActionBannerDelete:
		return nil, gw.Delete(ctx, params.IDs, params.Credentials)
	case ActionManageHomeSettings:
		settings := models.HomeSettings{
			ID:          models.HomeSettingsID,
			BgPcURL:     strings.TrimSpace(params.BgPcURL),
			BgMobileURL: strings.TrimSpace(params.BgMobileURL),
		}
		return nil, gw.SetHomeSettings(ctx, settings, params.Credentials)
	case ActionManageAdminAccess:
		return nil, gw.ManageAdmin(ctx, AdminAction(strings.ToUpper(params.Action)), params.Target(), params.Credentials)
	case ActionFetchBanners:
		return gw.List(ctx, params.FilterNationKey)
	case ActionFetchAdminList:
		return gw.ListAdmins(ctx, params.Credentials)
	case ActionFetchHomeSettings:
		return gw.GetHomeSettings(ctx)
	default:
		return nil, NewValidationError("action", "Invalid action")
	}
}
