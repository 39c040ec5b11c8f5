package input

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// ImageTypes are the media types accepted as images.
var ImageTypes = []string{"image/png", "image/jpeg", "image/jpg", "image/gif"}

// Image waits for an image attachment or an image URL. "none" answers with an
// empty URL. Anything that cannot be confirmed as an image also yields an
// empty URL rather than an error.
func (p *Pipeline) Image(ctx context.Context, req Request) Result[string] {
	ev, found := p.await(ctx, req, req.predicate(), "image")
	if !found {
		return timedOut[string](textTimeoutReason)
	}
	defer p.cleanup(req, ev)

	content := strings.TrimSpace(ev.Content)
	if strings.EqualFold(content, "none") {
		return ok("")
	}

	if len(ev.Attachments) > 0 && isImageType(ev.Attachments[0].ContentType) {
		return ok(ev.Attachments[0].ProxyURL)
	}

	if p.probeImage(ctx, content) {
		return ok(content)
	}
	return ok("")
}

// probeImage fetches raw and reports whether the response is an image.
func (p *Pipeline) probeImage(ctx context.Context, raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Debug("image fetch failed", zap.String("url", raw), zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 512))

	return isImageType(resp.Header.Get("Content-Type"))
}

func isImageType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return lo.Contains(ImageTypes, mediaType)
}
