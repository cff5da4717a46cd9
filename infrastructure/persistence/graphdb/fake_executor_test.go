package graphdb

import (
	"context"
	"errors"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type call struct {
	query  string
	params map[string]interface{}
	inTx   bool
}

type response struct {
	records []*neo4j.Record
	err     error
}

// fakeExecutor replays scripted responses in order and records every statement.
type fakeExecutor struct {
	mu        sync.Mutex
	responses []response
	calls     []call
	inTx      bool
	connErr   error
	txCount   int
}

func (f *fakeExecutor) push(records ...*neo4j.Record) *fakeExecutor {
	f.responses = append(f.responses, response{records: records})
	return f
}

func (f *fakeExecutor) fail(err error) *fakeExecutor {
	f.responses = append(f.responses, response{err: err})
	return f
}

func (f *fakeExecutor) next(query string, params map[string]interface{}) ([]*neo4j.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{query: query, params: params, inTx: f.inTx})
	if len(f.responses) == 0 {
		return nil, nil
	}
	r := f.responses[0]
	f.responses = f.responses[1:]
	return r.records, r.err
}

func (f *fakeExecutor) Run(ctx context.Context, query string, params map[string]interface{}) ([]*neo4j.Record, error) {
	return f.next(query, params)
}

func (f *fakeExecutor) Read(ctx context.Context, query string, params map[string]interface{}) ([]*neo4j.Record, error) {
	return f.next(query, params)
}

func (f *fakeExecutor) ExecuteWrite(ctx context.Context, work func(tx Runner) error) error {
	f.mu.Lock()
	f.inTx = true
	f.txCount++
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inTx = false
		f.mu.Unlock()
	}()
	return work(f)
}

func (f *fakeExecutor) VerifyConnectivity(ctx context.Context) error { return f.connErr }

func (f *fakeExecutor) Close(ctx context.Context) error { return nil }

func record(kv ...interface{}) *neo4j.Record {
	rec := &neo4j.Record{}
	for i := 0; i+1 < len(kv); i += 2 {
		rec.Keys = append(rec.Keys, kv[i].(string))
		rec.Values = append(rec.Values, kv[i+1])
	}
	return rec
}

func list(ids ...int64) []interface{} {
	out := make([]interface{}, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

var errBolt = errors.New("bolt: connection refused")
