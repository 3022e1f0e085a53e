package explorer_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"explorer.pub/explorer"
	"explorer.pub/explorer/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T, tr *fakeTransport, opts ...explorer.Option) *explorer.API {
	t.Helper()
	api, err := explorer.New(explorer.Options{
		URL:             "https://godbolt.org",
		DefaultLanguage: "c++",
	}, append([]explorer.Option{explorer.WithTransport(tr)}, opts...)...)
	require.NoError(t, err)
	return api
}

func TestCompilersList(t *testing.T) {
	tr := &fakeTransport{body: []byte(compilerList)}
	api := newTestAPI(t, tr)

	list, err := api.Compilers.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 4)

	assert.Equal(t, "g132", list[0].ID())
	assert.Equal(t, "x86-64 gcc 13.2", list[0].Name())
	assert.Equal(t, "gcc", list[0].Type())
	assert.Equal(t, "13.2", list[0].Version())
	assert.Equal(t, "cpp4gcc", list[0].Group())
	assert.Equal(t, "c++", list[0].Language())
	assert.True(t, list[0].SupportsExecution())

	// Defaults
	assert.Equal(t, "win32-vc", list[2].Type())
	assert.Equal(t, "cl19", list[2].Version())
	assert.False(t, list[2].SupportsExecution())
	assert.Equal(t, explorer.DefaultCompilerType, list[3].Type())
	assert.Equal(t, "legacy", list[3].Version())
	assert.Equal(t, "c++", list[3].Language())

	calls := tr.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/api/compilers/c%2B%2B", calls[0].Path)
	assert.Equal(t, wire.ContentTypeJSON, calls[0].Header.Get("Accept"))

	// Memoized
	again, err := api.Compilers.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, list, again)
	assert.Len(t, tr.Calls(), 1)

	// Callers cannot modify the memoized list
	again[0] = nil
	third, err := api.Compilers.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, third[0])
}

func TestCompilersListSingleFlight(t *testing.T) {
	tr := &fakeTransport{
		body: []byte(compilerList),
		gate: make(chan struct{}),
	}
	api := newTestAPI(t, tr)

	const callers = 16
	var (
		wg      sync.WaitGroup
		results = make([][]*explorer.Compiler, callers)
		errs    = make([]error, callers)
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = api.Compilers.List(context.Background())
		}(i)
	}

	// Give callers a chance to queue up behind the first fetch
	require.Eventually(t, func() bool { return len(tr.Calls()) == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(tr.gate)
	wg.Wait()

	assert.Len(t, tr.Calls(), 1)
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Len(t, results[i], 4)
		assert.Same(t, results[0][0], results[i][0])
	}
}

func TestCompilersListFailureIsTerminal(t *testing.T) {
	wantErr := fmt.Errorf("connection refused")
	tr := &fakeTransport{err: wantErr}
	api := newTestAPI(t, tr)

	_, err := api.Compilers.List(context.Background())
	assert.ErrorIs(t, err, wantErr)

	// The service recovers, but the registry does not retry
	tr.mu.Lock()
	tr.err = nil
	tr.body = []byte(compilerList)
	tr.mu.Unlock()

	_, err = api.Compilers.List(context.Background())
	assert.ErrorIs(t, err, wantErr)
	_, err = api.Compilers.FindByID(context.Background(), "g132")
	assert.ErrorIs(t, err, wantErr)
	assert.Len(t, tr.Calls(), 1)
}

func TestCompilersListMalformed(t *testing.T) {
	tr := &fakeTransport{body: []byte(`<html>502 Bad Gateway</html>`)}
	api := newTestAPI(t, tr)

	_, err := api.Compilers.List(context.Background())
	var malformed *explorer.MalformedResponseError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, []byte(`<html>502 Bad Gateway</html>`), malformed.Body)
}

func TestCompilersListCallerCancelled(t *testing.T) {
	tr := &fakeTransport{
		body: []byte(compilerList),
		gate: make(chan struct{}),
	}
	api := newTestAPI(t, tr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := api.Compilers.List(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool { return len(tr.Calls()) == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	// The load was not cancelled along with the caller that started it
	close(tr.gate)
	list, err := api.Compilers.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 4)
	assert.Len(t, tr.Calls(), 1)
}

func TestCompilersFind(t *testing.T) {
	tests := []struct {
		name string

		compilerType string
		version      string

		wantID  string
		wantErr error
	}{
		{
			name:         "TypeAndSemver",
			compilerType: "clang",
			version:      "17.0.1",
			wantID:       "clang170",
		},
		{
			name:         "VersionDefaultedFromID",
			compilerType: "win32-vc",
			version:      "cl19",
			wantID:       "cl19",
		},
		{
			name:         "DefaultedTypeAndVersion",
			compilerType: "gcc",
			version:      "legacy",
			wantID:       "legacy",
		},
		{
			name:         "WrongVersion",
			compilerType: "gcc",
			version:      "12.1",
			wantErr:      explorer.ErrCompilerNotFound,
		},
		{
			name:         "WrongType",
			compilerType: "icc",
			version:      "13.2",
			wantErr:      explorer.ErrCompilerNotFound,
		},
	}

	tr := &fakeTransport{body: []byte(compilerList)}
	api := newTestAPI(t, tr)

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			compiler, err := api.Compilers.Find(context.Background(), tc.compilerType, tc.version)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, compiler)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantID, compiler.ID())
		})
	}
}

func TestCompilersFindByID(t *testing.T) {
	tr := &fakeTransport{body: []byte(compilerList)}
	api := newTestAPI(t, tr)

	compiler, err := api.Compilers.FindByID(context.Background(), "clang170")
	require.NoError(t, err)
	assert.Equal(t, "clang", compiler.Type())

	compiler, err = api.Compilers.FindByID(context.Background(), "icc2021")
	assert.ErrorIs(t, err, explorer.ErrCompilerNotFound)
	assert.Nil(t, compiler)
	assert.Len(t, tr.Calls(), 1)
}
