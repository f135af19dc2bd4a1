package cache

import (
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid-redis", "redis://localhost:6379", false},
		{"valid-with-db", "redis://localhost:6379/0", false},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseURL() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_UnreachableHost(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping unreachable host test in short mode")
	}

	ctx := t.Context()
	_, err := New(ctx, "redis://localhost:59999")
	if err == nil {
		t.Fatal("New() should return error for unreachable host")
	}
}

func TestSetJSON_UnencodableValue(t *testing.T) {
	opts, err := ParseURL("redis://localhost:6379")
	if err != nil {
		t.Fatal(err)
	}
	c := &Cache{Client: redis.NewClient(opts)}

	// Marshal failure is reported before any network round trip.
	if err := c.SetJSON(t.Context(), "k", make(chan int), 0); err == nil {
		t.Error("SetJSON() should fail for an unencodable value")
	}
}

func TestErrCacheMiss_Sentinel(t *testing.T) {
	// Report callers branch on the miss sentinel; a wrapped miss must
	// still match.
	wrapped := errors.Join(ErrCacheMiss)
	if !errors.Is(wrapped, ErrCacheMiss) {
		t.Error("wrapped cache miss should match ErrCacheMiss")
	}
}
