package ledger

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// NewServices builds Drive and Sheets clients authorized with the user's
// access token. Extra options apply after the defaults, so tests can point
// both clients at a fake endpoint.
func NewServices(ctx context.Context, accessToken string, extra ...option.ClientOption) (*drive.Service, *sheets.Service, error) {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	opts := append([]option.ClientOption{option.WithTokenSource(src)}, extra...)

	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("drive client: %w", err)
	}
	sheetsSvc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("sheets client: %w", err)
	}
	return driveSvc, sheetsSvc, nil
}
