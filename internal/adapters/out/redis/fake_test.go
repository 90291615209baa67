package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// fakeStore is an in-memory cmdable. TTLs are recorded, not enforced.
type fakeStore struct {
	data    map[string]string
	ttls    map[string]time.Duration
	counter map[string]int64
	expired []string
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		data:    make(map[string]string),
		ttls:    make(map[string]time.Duration),
		counter: make(map[string]int64),
	}
}

func (f *fakeStore) Ping(context.Context) *goredis.StatusCmd {
	return goredis.NewStatusResult("PONG", f.err)
}

func (f *fakeStore) Set(_ context.Context, key string, value any, ttl time.Duration) *goredis.StatusCmd {
	if f.err != nil {
		return goredis.NewStatusResult("", f.err)
	}
	f.data[key] = fmt.Sprint(value)
	f.ttls[key] = ttl
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeStore) MGet(_ context.Context, keys ...string) *goredis.SliceCmd {
	cmd := goredis.NewSliceCmd(context.Background())
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	values := make([]any, len(keys))
	for i, key := range keys {
		if v, ok := f.data[key]; ok {
			values[i] = v
		}
	}
	cmd.SetVal(values)
	return cmd
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) *goredis.BoolCmd {
	if f.err != nil {
		return goredis.NewBoolResult(false, f.err)
	}
	if _, exists := f.data[key]; exists {
		return goredis.NewBoolResult(false, nil)
	}
	f.data[key] = fmt.Sprint(value)
	f.ttls[key] = ttl
	return goredis.NewBoolResult(true, nil)
}

func (f *fakeStore) Incr(_ context.Context, key string) *goredis.IntCmd {
	if f.err != nil {
		return goredis.NewIntResult(0, f.err)
	}
	f.counter[key]++
	return goredis.NewIntResult(f.counter[key], nil)
}

func (f *fakeStore) Expire(_ context.Context, key string, ttl time.Duration) *goredis.BoolCmd {
	f.expired = append(f.expired, key)
	f.ttls[key] = ttl
	return goredis.NewBoolResult(true, nil)
}

func (f *fakeStore) Del(_ context.Context, keys ...string) *goredis.IntCmd {
	for _, key := range keys {
		delete(f.data, key)
	}
	return goredis.NewIntResult(int64(len(keys)), nil)
}

// EvalSha and Eval only know the compare-and-delete script used by Lock.
func (f *fakeStore) EvalSha(ctx context.Context, _ string, keys []string, args ...any) *goredis.Cmd {
	return f.Eval(ctx, "", keys, args...)
}

func (f *fakeStore) Eval(_ context.Context, _ string, keys []string, args ...any) *goredis.Cmd {
	if f.err != nil {
		return goredis.NewCmdResult(nil, f.err)
	}
	if v, ok := f.data[keys[0]]; ok && v == fmt.Sprint(args[0]) {
		delete(f.data, keys[0])
		return goredis.NewCmdResult(int64(1), nil)
	}
	return goredis.NewCmdResult(int64(0), nil)
}

func (f *fakeStore) EvalRO(context.Context, string, []string, ...any) *goredis.Cmd {
	return goredis.NewCmdResult(nil, errors.New("not supported"))
}

func (f *fakeStore) EvalShaRO(context.Context, string, []string, ...any) *goredis.Cmd {
	return goredis.NewCmdResult(nil, errors.New("not supported"))
}

func (f *fakeStore) ScriptExists(_ context.Context, hashes ...string) *goredis.BoolSliceCmd {
	return goredis.NewBoolSliceResult(make([]bool, len(hashes)), nil)
}

func (f *fakeStore) ScriptLoad(context.Context, string) *goredis.StringCmd {
	return goredis.NewStringResult("", errors.New("not supported"))
}
