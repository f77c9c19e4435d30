package tokenstore

import (
	"testing"

	"github.com/Overland-East-Bay/ridebook/internal/adapters/contracttest"
	tokenstoreport "github.com/Overland-East-Bay/ridebook/internal/ports/out/tokenstore"
)

func TestContract_TokenStore(t *testing.T) {
	contracttest.RunTokenStore(t, func(t *testing.T) (tokenstoreport.Store, func()) {
		t.Helper()
		return NewStore(), nil
	})
}
