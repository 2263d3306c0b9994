package store_test

import (
	"testing"

	"github.com/seenimoa/agriprice/internal/store"
	"github.com/seenimoa/agriprice/internal/store/storetest"
)

func TestMemory(t *testing.T) {
	kv := store.NewMemory()
	defer kv.Close()
	storetest.Run(t, kv)
}
