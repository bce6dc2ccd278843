// Package access keeps the owner, the single administrator and the blacklist
// of accounts barred from hosting games.
//
// Control is stateless. Every method runs against the transaction handed to
// it, so a failed call leaves the admin slot and the blacklist untouched once
// the caller's transaction is discarded.
package access

import (
	"encoding/json"
	"errors"

	"github.com/wricardo/rps-game/account"
	"github.com/wricardo/rps-game/storage"
)

// ErrUnauthorized is returned when the caller is not the current admin.
var ErrUnauthorized = errors.New("unauthorized")

const (
	ownerSlot          = "owner"
	adminSlot          = "admin"
	blacklistNamespace = "blacklist"
)

// Control owns the owner slot, the admin slot and the blacklist set.
type Control struct {
	ownerKey []byte
	adminKey []byte
}

// New creates an access controller over the default key layout.
func New() *Control {
	return &Control{
		ownerKey: storage.SlotKey(ownerSlot),
		adminKey: storage.SlotKey(adminSlot),
	}
}

// Initialized reports whether Initialize has already run against this state.
func (c *Control) Initialized(r storage.Reader) (bool, error) {
	_, ok, err := r.Get(c.ownerKey)
	return ok, err
}

// Initialize records creator as both owner and admin.
func (c *Control) Initialize(rw storage.ReadWriter, creator account.ID) error {
	if err := c.putAccount(rw, c.ownerKey, &creator); err != nil {
		return err
	}
	return c.putAccount(rw, c.adminKey, &creator)
}

// Owner returns the account recorded at creation.
func (c *Control) Owner(r storage.Reader) (account.ID, bool, error) {
	return c.getAccount(r, c.ownerKey)
}

// Admin returns the current admin, or ok=false when the role has been given up.
func (c *Control) Admin(r storage.Reader) (account.ID, bool, error) {
	return c.getAccount(r, c.adminKey)
}

// TransferAdmin replaces the admin with newAdmin. A nil newAdmin leaves the
// role empty, after which no caller passes the admin check again.
func (c *Control) TransferAdmin(rw storage.ReadWriter, caller account.ID, newAdmin *account.ID) error {
	if err := c.requireAdmin(rw, caller); err != nil {
		return err
	}
	return c.putAccount(rw, c.adminKey, newAdmin)
}

// AddToBlacklist bars target from hosting. Adding a present entry is a no-op.
func (c *Control) AddToBlacklist(rw storage.ReadWriter, caller, target account.ID) error {
	if err := c.requireAdmin(rw, caller); err != nil {
		return err
	}
	return rw.Set(storage.SetKey(blacklistNamespace, target.String()), []byte{})
}

// RemoveFromBlacklist lifts the bar on target. Removing an absent entry is a no-op.
func (c *Control) RemoveFromBlacklist(rw storage.ReadWriter, caller, target account.ID) error {
	if err := c.requireAdmin(rw, caller); err != nil {
		return err
	}
	return rw.Delete(storage.SetKey(blacklistNamespace, target.String()))
}

// IsBlacklisted reports whether id is barred from hosting.
func (c *Control) IsBlacklisted(r storage.Reader, id account.ID) (bool, error) {
	_, ok, err := r.Get(storage.SetKey(blacklistNamespace, id.String()))
	return ok, err
}

// ListBlacklisted returns the blacklist in key order.
func (c *Control) ListBlacklisted(r storage.Reader) ([]account.ID, error) {
	list := []account.ID{}
	err := r.Range(storage.CollectionPrefix(blacklistNamespace), func(key, _ []byte) error {
		member, err := storage.SetMember(blacklistNamespace, key)
		if err != nil {
			return storage.Wrap("decode blacklist", err)
		}
		list = append(list, account.ID(member))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Control) requireAdmin(r storage.Reader, caller account.ID) error {
	admin, ok, err := c.Admin(r)
	if err != nil {
		return err
	}
	if !ok || admin != caller {
		return ErrUnauthorized
	}
	return nil
}

// slots hold a JSON string, or null for an empty admin role
func (c *Control) getAccount(r storage.Reader, key []byte) (account.ID, bool, error) {
	raw, ok, err := r.Get(key)
	if err != nil || !ok {
		return "", false, err
	}
	var id *string
	if err := json.Unmarshal(raw, &id); err != nil {
		return "", false, storage.Wrap("decode "+string(key), err)
	}
	if id == nil {
		return "", false, nil
	}
	return account.ID(*id), true, nil
}

func (c *Control) putAccount(rw storage.ReadWriter, key []byte, id *account.ID) error {
	raw, err := json.Marshal(id)
	if err != nil {
		return storage.Wrap("encode "+string(key), err)
	}
	return rw.Set(key, raw)
}
