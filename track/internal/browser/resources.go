package browser

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// setUserAgent overrides the page's user agent before navigation.
func setUserAgent(page *rod.Page, ua string) error {
	if ua == "" {
		return nil
	}
	return page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua})
}

// applyResourceBlocking intercepts requests and fails those matching a
// blocked resource type or a blocked (analytics) hostname. Cuts page load
// time and removes tracking noise from the render.
func applyResourceBlocking(page *rod.Page, types, hosts []string) error {
	blockSet := make(map[string]bool, len(types))
	for _, t := range types {
		blockSet[strings.ToLower(t)] = true
	}

	router := page.HijackRequests()

	router.MustAdd("*", func(ctx *rod.Hijack) {
		if shouldBlockType(blockSet, string(ctx.Request.Type())) ||
			shouldBlockHost(hosts, ctx.Request.URL().Hostname()) {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})

	go router.Run()

	return nil
}

func shouldBlockType(blockSet map[string]bool, resType string) bool {
	switch strings.ToLower(resType) {
	case "image":
		return blockSet["images"]
	case "font":
		return blockSet["fonts"]
	case "media":
		return blockSet["media"]
	case "stylesheet":
		return blockSet["stylesheets"]
	}
	return false
}

func shouldBlockHost(hosts []string, host string) bool {
	h := strings.ToLower(host)
	for _, sub := range hosts {
		if strings.Contains(h, sub) {
			return true
		}
	}
	return false
}
