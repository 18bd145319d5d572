package pathprovider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotGetBeforeSet(t *testing.T) {
	s := NewSlot()
	_, err := s.Get()
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.False(t, s.IsSet())
}

func TestSlotSetGetClear(t *testing.T) {
	s := NewSlot()
	p := NewStaticVisit("i22", t.TempDir(), nil)
	s.Set(p)

	for i := 0; i < 3; i++ {
		got, err := s.Get()
		require.NoError(t, err)
		assert.Same(t, p, got)
	}

	s.Clear()
	_, err := s.Get()
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestStaticVisitInfo(t *testing.T) {
	root := t.TempDir()
	v := NewStaticVisit("i22", root, NewLocalCollectionClient(7))

	_, err := v.Info("saxs")
	assert.ErrorIs(t, err, ErrNoCollection)

	require.NoError(t, v.Update(context.Background()))
	info, err := v.Info("saxs")
	require.NoError(t, err)
	assert.Equal(t, root, info.Directory)
	assert.Equal(t, "i22-7-saxs", info.Filename)

	require.NoError(t, v.Update(context.Background()))
	info, err = v.Info("waxs")
	require.NoError(t, err)
	assert.Equal(t, "i22-8-waxs", info.Filename)
}

func TestRemoteCollectionClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/numtracker", r.URL.Path)
		_, _ = w.Write([]byte(`{"collectionNumber": 42}`))
	}))
	defer srv.Close()

	c := NewRemoteCollectionClient(srv.URL + "/")
	n, err := c.NextCollection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestRemoteCollectionClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, "boom", ErrNumtracker},
		{"missing field", http.StatusOK, `{}`, ErrNumtracker},
		{"bad json", http.StatusOK, `{`, ErrNumtracker},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewRemoteCollectionClient(srv.URL).NextCollection(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
