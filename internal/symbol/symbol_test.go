package symbol

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/aws-samples/sample-lambda-network-monitor/internal/log"
)

var genuine = [4]byte{}

func fakeLookup(calls *atomic.Int32, known ...string) Lookup {
	return func(name string) (unsafe.Pointer, error) {
		calls.Add(1)
		for _, k := range known {
			if k == name {
				return unsafe.Pointer(&genuine), nil
			}
		}
		return nil, nil
	}
}

func TestSymbolResolvesOnce(t *testing.T) {
	var calls atomic.Int32
	sym := New("connect", fakeLookup(&calls, "connect"), nil)

	assert.Equal(t, int32(0), calls.Load(), "resolution is lazy")

	addr, err := sym.Resolve()
	require.NoError(t, err)
	assert.Equal(t, unsafe.Pointer(&genuine), addr)
	assert.Equal(t, unsafe.Pointer(&genuine), sym.Get())
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "connect", sym.Name())
}

func TestSymbolConcurrentFirstUse(t *testing.T) {
	var calls atomic.Int32
	sym := New("socket", fakeLookup(&calls, "socket"), nil)

	var wg sync.WaitGroup
	results := make([]unsafe.Pointer, 64)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = sym.Get()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, unsafe.Pointer(&genuine), r)
	}
}

func TestSymbolNotFound(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	var calls atomic.Int32
	sym := New("close", fakeLookup(&calls), log.FromCore(core))

	_, err := sym.Resolve()
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, sym.Get())
	assert.Equal(t, int32(1), calls.Load(), "failure is cached")

	errorLogs := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, errorLogs, 1)
	assert.Equal(t, "symbolNotFound", errorLogs[0].Message)
	assert.Equal(t, "close", errorLogs[0].ContextMap()["fn"])
}

func TestSymbolLookupError(t *testing.T) {
	wantErr := errors.New("dlsym exploded")
	sym := New("getaddrinfo", func(string) (unsafe.Pointer, error) { return nil, wantErr }, nil)

	_, err := sym.Resolve()
	assert.ErrorIs(t, err, wantErr)
}

func TestTableRegister(t *testing.T) {
	var calls atomic.Int32
	table := NewTable(fakeLookup(&calls, "socket", "connect"), nil)

	a := table.Register("socket")
	b := table.Register("socket")
	table.Register("connect")

	assert.Same(t, a, b)
	assert.Equal(t, 2, table.Count())
	assert.Equal(t, []string{"connect", "socket"}, table.List())

	got, found := table.Get("connect")
	require.True(t, found)
	assert.Equal(t, "connect", got.Name())

	_, found = table.Get("close")
	assert.False(t, found)
}

func TestTableResolveAll(t *testing.T) {
	var calls atomic.Int32
	table := NewTable(fakeLookup(&calls, "socket", "connect"), nil)
	table.Register("socket")
	table.Register("connect")
	require.NoError(t, table.ResolveAll())

	table.Register("close")
	err := table.ResolveAll()
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "close")
	assert.Equal(t, int32(3), calls.Load())
}
