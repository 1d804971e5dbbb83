package token

import (
	"github.com/roach88/mytoken/internal/contract"
)

// Code ids.
const (
	CodeToken              = "eosio.token"
	CodeMyToken            = "mytoken"
	CodeMyTokenTransledger = "mytoken-transledger"
)

// Register adds every token code id to r.
func Register(r *contract.Registry) error {
	codes := []struct {
		id string
		fn func() contract.Dispatcher
	}{
		{CodeToken, Token},
		{CodeMyToken, MyToken},
		{CodeMyTokenTransledger, MyTokenTransledger},
	}
	for _, c := range codes {
		fn := c.fn
		if err := r.Register(c.id, func() contract.Code { return fn() }); err != nil {
			return err
		}
	}
	return nil
}
