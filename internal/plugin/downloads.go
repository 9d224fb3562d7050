package plugin

import (
	"fmt"
	"runtime"
	"strings"

	"humblesync/internal/models"
	"humblesync/internal/shared"
)

// DownloadResolver picks the concrete download artifact for the current
// platform out of a product's download metadata.
type DownloadResolver struct {
	platform string
}

// NewDownloadResolver creates a resolver for the current GOOS. The catalog
// uses "mac" for darwin.
func NewDownloadResolver() *DownloadResolver {
	platform := runtime.GOOS
	if platform == "darwin" {
		platform = "mac"
	}
	return &DownloadResolver{platform: platform}
}

// ChooseSubproduct selects the download struct for a subproduct, preferring
// the native platform and falling back to windows (most catalog entries carry
// at least a windows build).
func (r *DownloadResolver) ChooseSubproduct(sub models.Subproduct) (models.DownloadStruct, error) {
	download, ok := findPlatform(sub.Data.Downloads, r.platform)
	if !ok {
		download, ok = findPlatform(sub.Data.Downloads, "windows")
	}
	if !ok || len(download.DownloadStructs) == 0 {
		return models.DownloadStruct{}, fmt.Errorf("%w: %s has no downloads for %s", shared.ErrDownloadNotFound, sub.MachineName(), r.platform)
	}

	// Prefer the 64-bit artifact when variants are split by bitness.
	for _, ds := range download.DownloadStructs {
		if strings.Contains(ds.Name, "64") {
			return ds, nil
		}
	}
	return download.DownloadStructs[0], nil
}

// ChooseTrove selects the trove artifact for the current platform, with the
// same windows fallback.
func (r *DownloadResolver) ChooseTrove(game models.TroveGame) (models.TroveDownload, error) {
	if download, ok := game.Data.Downloads[r.platform]; ok {
		return download, nil
	}
	if download, ok := game.Data.Downloads["windows"]; ok {
		return download, nil
	}
	return models.TroveDownload{}, fmt.Errorf("%w: trove entry %s has no downloads for %s", shared.ErrDownloadNotFound, game.MachineName(), r.platform)
}

func findPlatform(downloads []models.Download, platform string) (models.Download, bool) {
	for _, d := range downloads {
		if d.PlatformName == platform {
			return d, true
		}
	}
	return models.Download{}, false
}
