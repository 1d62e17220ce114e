// Package dbstat is a diagnostic actor.Module that persists every
// inbound message's (source, type, payload length) to a sqlite table
// and replies to PTYPE_TEXT messages with the table's running row
// count — a stand-in for the
// kind of bookkeeping service real skynet deployments keep next to the
// scheduler (request auditing, replay buffers). It is built on
// pkg/db.Pool the way the teacher's own components sit on top of it.
package dbstat

import (
	"context"
	"encoding/binary"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fluxorio/corenet/pkg/actor"
	"github.com/fluxorio/corenet/pkg/db"
	"github.com/fluxorio/corenet/pkg/module"
)

func init() {
	module.Register("dbstat", &Module{})
}

// Module implements actor.Module. The Create parameter convention
// matches the others in pkg/modules: Init's param string is the
// sqlite DSN (':memory:' is valid, and is what the package's tests
// use).
type Module struct{}

type instance struct {
	pool *db.Pool
}

func (Module) Create() (any, error) { return &instance{}, nil }

const createTable = `CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source INTEGER NOT NULL,
	type INTEGER NOT NULL,
	size INTEGER NOT NULL
)`

func (Module) Init(inst any, ctx *actor.Context, param string) error {
	i := inst.(*instance)
	dsn := param
	if dsn == "" {
		dsn = ":memory:"
	}

	cfg := db.DefaultPoolConfig(dsn, "sqlite3")
	cfg.MaxOpenConns = 1 // sqlite serializes writers; a single connection avoids SQLITE_BUSY
	cfg.MaxIdleConns = 1

	pool, err := db.NewPool(cfg)
	if err != nil {
		return err
	}
	if _, err := pool.Exec(context.Background(), createTable); err != nil {
		pool.Close()
		return err
	}
	i.pool = pool

	ctx.RegisterCallback(func(ctx *actor.Context, ud any, t actor.PType, session int32, source actor.Handle, payload []byte) bool {
		i := ud.(*instance)
		_, _ = i.pool.Exec(context.Background(),
			"INSERT INTO messages (source, type, size) VALUES (?, ?, ?)",
			uint32(source), uint8(t), len(payload))

		if t == actor.PTypeText {
			var count int64
			row := i.pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM messages")
			if err := row.Scan(&count); err == nil {
				reply := make([]byte, 8)
				binary.BigEndian.PutUint64(reply, uint64(count))
				_, _ = ctx.Node().Send(ctx.Handle(), source, actor.PTypeResponse, session, reply, 0)
			}
		}
		return false
	}, i)

	return nil
}

func (Module) Release(inst any) {
	i := inst.(*instance)
	if i.pool != nil {
		_ = i.pool.Close()
	}
}

func (Module) Signal(any, int) {}
