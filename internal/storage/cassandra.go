package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/gocql/gocql"
)

// CassandraAdapter persists contexts in a distributed table store with
// the context id as partition key, so one conversation's rows stay on
// one replica set while distinct conversations scale out. Same data
// model as the SQL adapter: one row per (id, field) value, one row per
// (id, field, turn) entry.
type CassandraAdapter struct {
	session *gocql.Session
	uri     string
}

func init() {
	Register("cassandra", func(ctx context.Context, uri string) (Adapter, error) {
		return OpenCassandra(ctx, uri)
	})
}

// OpenCassandra connects to the cluster named by uri
// (cassandra://host1,host2/keyspace). The keyspace must already exist;
// the two owned tables are created on first use.
func OpenCassandra(ctx context.Context, uri string) (*CassandraAdapter, error) {
	target := strings.TrimPrefix(uri, "cassandra://")
	hostsPart, keyspace, ok := strings.Cut(target, "/")
	if !ok || hostsPart == "" || keyspace == "" {
		return nil, &ConfigError{Scheme: "cassandra", Reason: "URI must look like cassandra://host1,host2/keyspace"}
	}

	cluster := gocql.NewCluster(strings.Split(hostsPart, ",")...)
	cluster.Keyspace = keyspace
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, &ConfigError{Scheme: "cassandra", Reason: fmt.Sprintf("connect: %v", err)}
	}

	tables := []string{
		`CREATE TABLE IF NOT EXISTS ` + sqlValuesTable + ` (
			id text,
			field text,
			data blob,
			PRIMARY KEY ((id), field)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + sqlTurnsTable + ` (
			id text,
			field text,
			turn bigint,
			data blob,
			PRIMARY KEY ((id), field, turn)
		)`,
	}
	for _, stmt := range tables {
		if err := session.Query(stmt).WithContext(ctx).Exec(); err != nil {
			session.Close()
			return nil, &ConfigError{Scheme: "cassandra", Reason: fmt.Sprintf("init schema: %v", err)}
		}
	}
	return &CassandraAdapter{session: session, uri: uri}, nil
}

func (a *CassandraAdapter) PutValue(ctx context.Context, id, field string, data []byte) error {
	err := a.session.Query(
		`INSERT INTO `+sqlValuesTable+` (id, field, data) VALUES (?, ?, ?)`,
		id, field, data,
	).WithContext(ctx).Exec()
	return storageErr("cassandra", id, field, err)
}

func (a *CassandraAdapter) PutAppend(ctx context.Context, id, field string, entries map[int][]byte) error {
	batch := a.session.NewBatch(gocql.UnloggedBatch).WithContext(ctx)
	for i, data := range entries {
		batch.Query(
			`INSERT INTO `+sqlTurnsTable+` (id, field, turn, data) VALUES (?, ?, ?, ?)`,
			id, field, i, data,
		)
	}
	return storageErr("cassandra", id, field, a.session.ExecuteBatch(batch))
}

func (a *CassandraAdapter) GetValue(ctx context.Context, id, field string) ([]byte, error) {
	var data []byte
	err := a.session.Query(
		`SELECT data FROM `+sqlValuesTable+` WHERE id = ? AND field = ?`,
		id, field,
	).WithContext(ctx).Scan(&data)
	if err == gocql.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("cassandra", id, field, err)
	}
	return data, nil
}

func (a *CassandraAdapter) GetAppend(ctx context.Context, id, field string) (map[int][]byte, error) {
	iter := a.session.Query(
		`SELECT turn, data FROM `+sqlTurnsTable+` WHERE id = ? AND field = ?`,
		id, field,
	).WithContext(ctx).Iter()

	out := map[int][]byte{}
	var turn int
	var data []byte
	for iter.Scan(&turn, &data) {
		entry := make([]byte, len(data))
		copy(entry, data)
		out[turn] = entry
	}
	if err := iter.Close(); err != nil {
		return nil, storageErr("cassandra", id, field, err)
	}
	return out, nil
}

func (a *CassandraAdapter) Bound(ctx context.Context, id string) (int, error) {
	iter := a.session.Query(
		`SELECT turn FROM `+sqlTurnsTable+` WHERE id = ?`,
		id,
	).WithContext(ctx).Iter()

	bound := -1
	var turn int
	for iter.Scan(&turn) {
		if turn > bound {
			bound = turn
		}
	}
	if err := iter.Close(); err != nil {
		return -1, storageErr("cassandra", id, "", err)
	}
	return bound, nil
}

func (a *CassandraAdapter) Delete(ctx context.Context, id string) error {
	for _, table := range []string{sqlValuesTable, sqlTurnsTable} {
		err := a.session.Query(
			`DELETE FROM `+table+` WHERE id = ?`, id,
		).WithContext(ctx).Exec()
		if err != nil {
			return storageErr("cassandra", id, "", err)
		}
	}
	return nil
}

// DeleteAll truncates exactly the two tables owned by this storage.
func (a *CassandraAdapter) DeleteAll(ctx context.Context) error {
	for _, table := range []string{sqlValuesTable, sqlTurnsTable} {
		if err := a.session.Query(`TRUNCATE ` + table).WithContext(ctx).Exec(); err != nil {
			return storageErr("cassandra", "", "", err)
		}
	}
	return nil
}

func (a *CassandraAdapter) Keys(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	for _, table := range []string{sqlValuesTable, sqlTurnsTable} {
		iter := a.session.Query(`SELECT DISTINCT id FROM ` + table).WithContext(ctx).Iter()
		var id string
		for iter.Scan(&id) {
			seen[id] = true
		}
		if err := iter.Close(); err != nil {
			return nil, storageErr("cassandra", "", "", err)
		}
	}
	keys := make([]string, 0, len(seen))
	for id := range seen {
		keys = append(keys, id)
	}
	return keys, nil
}

func (a *CassandraAdapter) FullPath() string { return a.uri }

func (a *CassandraAdapter) Close() error {
	a.session.Close()
	return nil
}
