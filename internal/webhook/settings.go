package webhook

import "context"

const urlSettingKey = "webhook_url"

// Settings stores the outbound webhook URL. An empty URL means dispatch is
// not configured.
type Settings interface {
	GetURL(ctx context.Context) (string, error)
	SetURL(ctx context.Context, url string) error
}
