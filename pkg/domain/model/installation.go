package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octoexec/pkg/domain/types"
)

// Installation is the granted-access relationship between the app and an account.
type Installation struct {
	ID           types.GitHubAppInstallID `json:"id"`
	AccountID    int64                    `json:"account_id"`
	AccountLogin string                   `json:"account_login"`
	AccountType  string                   `json:"account_type"`
	Permissions  map[string]string        `json:"permissions"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

func (x *Installation) Validate() error {
	if x.ID == 0 {
		return goerr.Wrap(types.ErrValidationFailed, "installation ID is empty")
	}
	if x.AccountLogin == "" {
		return goerr.Wrap(types.ErrValidationFailed, "account login is empty", goerr.V("id", x.ID))
	}
	return nil
}
