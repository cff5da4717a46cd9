package graphdb

import (
	"fmt"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func asInt64(rec *neo4j.Record, key string) (int64, error) {
	v, ok := rec.Get(key)
	if !ok {
		return 0, fmt.Errorf("record has no %q column", key)
	}
	return toInt64(v, key)
}

func toInt64(v interface{}, what string) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("%s: expected integer, got %T", what, v)
	}
}

// asNullableInt64 reports ok=false for a null column, as produced by an OPTIONAL MATCH miss.
func asNullableInt64(rec *neo4j.Record, key string) (int64, bool, error) {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return 0, false, nil
	}
	n, err := toInt64(v, key)
	return n, err == nil, err
}

// asString treats null as the empty string.
func asString(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// asInt64Slice reads a list column, skipping nulls, and returns it sorted.
func asInt64Slice(rec *neo4j.Record, key string) ([]int64, error) {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return []int64{}, nil
	}
	list, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s: expected list, got %T", key, v)
	}
	out := make([]int64, 0, len(list))
	for _, item := range list {
		if item == nil {
			continue
		}
		n, err := toInt64(item, key)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// nodeProps extracts the properties of a node-valued column.
func nodeProps(rec *neo4j.Record, key string) (map[string]interface{}, error) {
	v, ok := rec.Get(key)
	if !ok {
		return nil, fmt.Errorf("could not find return value %q in query result", key)
	}
	node, ok := v.(neo4j.Node)
	if !ok {
		return nil, fmt.Errorf("return value %q is not a node", key)
	}
	return node.Props, nil
}
