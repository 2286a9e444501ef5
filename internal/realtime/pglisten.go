package realtime

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// ChannelFor returns the LISTEN/NOTIFY channel carrying changes of a table.
func ChannelFor(table string) string {
	return table + "_changed"
}

// PGNotifier announces committed changes with pg_notify so every instance
// listening on the database refetches.
type PGNotifier struct {
	db *gorm.DB
}

func NewPGNotifier(db *gorm.DB) *PGNotifier {
	return &PGNotifier{db: db}
}

// Notify implements services.ChangeNotifier.
func (n *PGNotifier) Notify(ctx context.Context, table string) error {
	return n.db.WithContext(ctx).Exec("SELECT pg_notify(?, ?)", ChannelFor(table), table).Error
}

// PGListener is a Source backed by LISTEN on the local database.
type PGListener struct {
	dsn    string
	tables []string
	log    zerolog.Logger
}

func NewPGListener(dsn string, log zerolog.Logger) *PGListener {
	return &PGListener{
		dsn:    dsn,
		tables: []string{TableItems, TableSettings},
		log:    log,
	}
}

// Run listens until ctx is cancelled. After a reconnect every table is
// reported as changed because notifications may have been missed.
func (l *PGListener) Run(ctx context.Context, out chan<- Notification) error {
	listener := pq.NewListener(l.dsn, time.Second, 30*time.Second, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			l.log.Warn().Err(err).Int("event", int(ev)).Msg("postgres listener")
		}
	})
	defer listener.Close()

	for _, table := range l.tables {
		if err := listener.Listen(ChannelFor(table)); err != nil {
			return fmt.Errorf("listen %s: %w", table, err)
		}
	}
	l.log.Info().Strs("tables", l.tables).Msg("postgres listener started")

	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ping.C:
			go func() { _ = listener.Ping() }()
		case n := <-listener.Notify:
			for _, msg := range l.translate(n) {
				select {
				case out <- msg:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}
}

func (l *PGListener) translate(n *pq.Notification) []Notification {
	if n == nil {
		all := make([]Notification, 0, len(l.tables))
		for _, table := range l.tables {
			all = append(all, Notification{Table: table, Event: "RECONNECT"})
		}
		return all
	}
	table := strings.TrimSuffix(n.Channel, "_changed")
	if !known(table) {
		return nil
	}
	return []Notification{{Table: table, Event: "NOTIFY"}}
}
