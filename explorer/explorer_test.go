package explorer_test

import (
	"context"
	"sync"

	"explorer.pub/explorer/wire"
)

// fakeTransport answers every request with the same body or error.
type fakeTransport struct {
	mu    sync.Mutex
	calls []*wire.Wire

	// gate, if set, blocks Do until it is closed.
	gate chan struct{}

	body []byte
	err  error
}

func (t *fakeTransport) Do(ctx context.Context, w *wire.Wire) ([]byte, error) {
	t.mu.Lock()
	t.calls = append(t.calls, w)
	t.mu.Unlock()

	if t.gate != nil {
		select {
		case <-t.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if t.err != nil {
		return nil, t.err
	}
	return t.body, nil
}

func (t *fakeTransport) Calls() []*wire.Wire {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*wire.Wire(nil), t.calls...)
}

const compilerList = `[
	{"id": "g132", "name": "x86-64 gcc 13.2", "lang": "c++", "compilerType": "gcc", "semver": "13.2", "supportsExecute": true, "group": "cpp4gcc"},
	{"id": "clang170", "name": "x86-64 clang 17.0.1", "lang": "c++", "compilerType": "clang", "semver": "17.0.1", "supportsExecute": true, "group": "clang"},
	{"id": "cl19", "name": "x64 msvc v19", "lang": "c++", "compilerType": "win32-vc", "supportsExecute": false, "group": "vcpp"},
	{"id": "legacy", "name": "legacy compiler"}
]`
