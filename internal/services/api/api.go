// Package api mounts the HTTP surface: docs, meta probes and the admin API
package api

import (
	_ "embed"

	"marketwatch/internal/modkit"
	"marketwatch/internal/modkit/httpkit"
	"marketwatch/internal/modkit/module"
	phttp "marketwatch/internal/platform/net/http"

	metamod "marketwatch/internal/services/api/meta/module"
)

//go:embed openapi.json
var openapi []byte

// Options are the API options
type Options struct {
	Deps modkit.Deps
	// Modules are mounted under /api/v1 after the meta module
	Modules       []module.Module
	EnableSwagger bool
}

// Mount mounts the API onto the given router
func Mount(r phttp.Router, opt Options) {
	mods := append([]module.Module{metamod.New(opt.Deps)}, opt.Modules...)

	if opt.EnableSwagger {
		phttp.MountDocs(r, openapi)
	}

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(opt.Deps.Cfg.Prefix("CORE_API_")), func(api httpkit.Router) {
		for _, m := range mods {
			m.MountRoutes(api)
		}
	})
}
