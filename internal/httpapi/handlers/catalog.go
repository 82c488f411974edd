package handlers

import (
	"path/filepath"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/retailsync/catalog-sync/internal/core/feed"
	"github.com/retailsync/catalog-sync/internal/feedwriter"
	"github.com/retailsync/catalog-sync/internal/httpapi/response"
)

// CatalogGenerate runs the feed generator for both styles in parallel
// and writes/archives their CSVs, regenerating the cache first when
// refresh=true. With async=true one refresh task per style is handed to
// the worker's queue instead and the response returns immediately; a
// queued task always regenerates the cache, whatever refresh says. A full
// refresh takes minutes and not every operator wants to hold the
// connection open for it.
func (d *Deps) CatalogGenerate(c *gin.Context) {
	refresh := c.Query("refresh") == "true"
	ctx := c.Request.Context()

	if c.Query("async") == "true" {
		for _, style := range feed.Styles {
			if err := d.Queue.EnqueueRefresh(style); err != nil {
				response.InternalError(c, err.Error())
				return
			}
		}
		response.OK(c, 202, gin.H{"enqueued": feed.Styles})
		return
	}

	results := make([]feedwriter.Result, len(feed.Styles))
	errs := make([]error, len(feed.Styles))
	var wg sync.WaitGroup
	for i, style := range feed.Styles {
		wg.Add(1)
		go func(i int, style string) {
			defer wg.Done()
			res, err := d.Writer.WriteStyle(ctx, style, refresh)
			results[i] = res
			errs[i] = err
		}(i, style)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}
	}

	response.OK(c, 200, gin.H{"results": results})
}

// CatalogMeta reads the remote catalog's own descriptor, a quick way for
// the operator to confirm the configured catalog id and token resolve to
// the catalog they think they do.
func (d *Deps) CatalogMeta(c *gin.Context) {
	meta, err := d.Catalog.FetchMetadata(c.Request.Context())
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	response.OK(c, 200, meta)
}

// CatalogDownload streams one style's most recently generated CSV.
func (d *Deps) CatalogDownload(c *gin.Context) {
	style := c.Query("style")
	valid := false
	for _, s := range feed.Styles {
		if s == style {
			valid = true
			break
		}
	}
	if !valid {
		response.BadRequest(c, "style must be one of: standard, christmas")
		return
	}

	path := filepath.Join(d.OutputDir, style+".csv")
	c.Header("Content-Type", "text/csv")
	c.File(path)
}
