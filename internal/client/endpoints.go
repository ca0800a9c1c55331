package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/bricks-admin/dashboard/internal/models"
)

// URL templates relative to the base URL
const (
	PathLogin         = "/auth/login"
	PathLogout        = "/auth/logout"
	PathRegister      = "/auth/register"
	PathUsers         = "/users/users"
	PathUpdateUser    = "/users/update/:userId"
	PathDeleteUser    = "/users/delete/:userId"
	PathBalance       = "/getBalance/:userId"
	PathAddBalance    = "/balance/add"
	PathEditBalance   = "/balance/edit/:transactionId"
	PathDeleteBalance = "/balance/delete/:transactionId"
	PathAdminBalance  = "/balance/admin"
	PathTokens        = "/token/all/:userId"
	PathAllTokens     = "/token/admin/all"
	PathCreateToken   = "/token/create"
	PathUpdateToken   = "/token/update"
	PathConfirmToken  = "/token/confirm"
	PathDeleteToken   = "/token/delete/:tokenId"
	PathBedash        = "/message/all"
	PathAddBedash     = "/message/add"
	PathConfirmBedash = "/message/confirm/:id"
)

func id(v int64) string { return strconv.FormatInt(v, 10) }

// Login exchanges credentials for a bearer credential
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (string, error) {
	raw, err := c.send(ctx, http.MethodPost, PathLogin, req)
	if err != nil {
		return "", err
	}
	var resp models.LoginResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("%w: missing token", ErrMalformedResponse)
	}
	return resp.Token, nil
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := c.exec(ctx, http.MethodPost, PathLogout, nil)
	return err
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	env, err := call[*models.User](ctx, c, http.MethodPost, PathRegister, req)
	return checkOne(env.Data, err)
}

func (c *Client) Users(ctx context.Context) ([]models.User, error) {
	env, err := call[[]models.User](ctx, c, http.MethodGet, PathUsers, nil)
	return checkAll(env.Data, err)
}

func (c *Client) UpdateUser(ctx context.Context, userID int64, req models.UpdateUserRequest) (*models.User, error) {
	path := Expand(PathUpdateUser, map[string]string{"userId": id(userID)})
	env, err := call[*models.User](ctx, c, http.MethodPut, path, req)
	return checkOne(env.Data, err)
}

func (c *Client) DeleteUser(ctx context.Context, userID int64) error {
	_, err := c.exec(ctx, http.MethodDelete, Expand(PathDeleteUser, map[string]string{"userId": id(userID)}), nil)
	return err
}

func (c *Client) Balance(ctx context.Context, userID int64) (*models.BalanceSummary, error) {
	path := Expand(PathBalance, map[string]string{"userId": id(userID)})
	env, err := call[*models.BalanceSummary](ctx, c, http.MethodGet, path, nil)
	return checkOne(env.Data, err)
}

func (c *Client) AddBalance(ctx context.Context, req models.AddBalanceRequest) (*models.Transaction, error) {
	env, err := call[*models.Transaction](ctx, c, http.MethodPost, PathAddBalance, req)
	return checkOne(env.Data, err)
}

func (c *Client) EditBalance(ctx context.Context, transactionID int64, req models.EditBalanceRequest) (*models.Transaction, error) {
	path := Expand(PathEditBalance, map[string]string{"transactionId": id(transactionID)})
	env, err := call[*models.Transaction](ctx, c, http.MethodPut, path, req)
	return checkOne(env.Data, err)
}

func (c *Client) DeleteBalance(ctx context.Context, transactionID int64) error {
	path := Expand(PathDeleteBalance, map[string]string{"transactionId": id(transactionID)})
	_, err := c.exec(ctx, http.MethodDelete, path, nil)
	return err
}

func (c *Client) AdminBalance(ctx context.Context) ([]models.AdminBalanceRow, error) {
	env, err := call[[]models.AdminBalanceRow](ctx, c, http.MethodGet, PathAdminBalance, nil)
	return checkAll(env.Data, err)
}

func (c *Client) Tokens(ctx context.Context, userID int64) ([]models.Token, error) {
	path := Expand(PathTokens, map[string]string{"userId": id(userID)})
	env, err := call[[]models.Token](ctx, c, http.MethodGet, path, nil)
	return checkAll(env.Data, err)
}

func (c *Client) AllTokens(ctx context.Context) ([]models.Token, error) {
	env, err := call[[]models.Token](ctx, c, http.MethodGet, PathAllTokens, nil)
	return checkAll(env.Data, err)
}

func (c *Client) CreateToken(ctx context.Context, req models.CreateTokenRequest) (*models.Token, error) {
	env, err := call[*models.Token](ctx, c, http.MethodPost, PathCreateToken, req)
	return checkOne(env.Data, err)
}

func (c *Client) UpdateToken(ctx context.Context, req models.UpdateTokenRequest) (*models.Token, error) {
	env, err := call[*models.Token](ctx, c, http.MethodPut, PathUpdateToken, req)
	return checkOne(env.Data, err)
}

func (c *Client) ConfirmToken(ctx context.Context, req models.ConfirmTokenRequest) (*models.Token, error) {
	env, err := call[*models.Token](ctx, c, http.MethodPut, PathConfirmToken, req)
	return checkOne(env.Data, err)
}

func (c *Client) DeleteToken(ctx context.Context, tokenID int64) error {
	_, err := c.exec(ctx, http.MethodDelete, Expand(PathDeleteToken, map[string]string{"tokenId": id(tokenID)}), nil)
	return err
}

func (c *Client) Bedash(ctx context.Context) ([]models.BedashItem, error) {
	env, err := call[[]models.BedashItem](ctx, c, http.MethodGet, PathBedash, nil)
	return checkAll(env.Data, err)
}

func (c *Client) AddBedash(ctx context.Context, req models.AddBedashRequest) (*models.BedashItem, error) {
	env, err := call[*models.BedashItem](ctx, c, http.MethodPost, PathAddBedash, req)
	return checkOne(env.Data, err)
}

func (c *Client) ConfirmBedash(ctx context.Context, bedashID int64) (*models.BedashItem, error) {
	path := Expand(PathConfirmBedash, map[string]string{"id": id(bedashID)})
	env, err := call[*models.BedashItem](ctx, c, http.MethodPut, path, nil)
	return checkOne(env.Data, err)
}
