package mirror

import "strings"

// Domains classifies hosts seen in the mirror. All fields are fixed for a run.
type Domains struct {
	Main             string   // Domain served at the mirror root
	BaseSuffix       string   // Suffix shared by every CDN domain, e.g. ".kujiale.com"
	RenderData       string   // The only domain whose references are queued for download
	RewriteExcluded  []string // References to these domains are never rewritten
	DownloadExcluded []string // Never downloaded even though they match BaseSuffix
}

// DefaultDomains returns the classification for the kujiale panorama viewer
func DefaultDomains() Domains {
	return Domains{
		Main:             "www.kujiale.com",
		BaseSuffix:       ".kujiale.com",
		RenderData:       "qhrenderpicoss.kujiale.com",
		RewriteExcluded:  []string{"www.kujiale.com", "qhstaticssl.kujiale.com"},
		DownloadExcluded: []string{"panojson-oss.kujiale.com"},
	}
}

// EligibleForDownload reports whether assets on domain may be fetched.
func (d Domains) EligibleForDownload(domain string) bool {
	if !strings.HasSuffix(domain, d.BaseSuffix) || domain == d.Main {
		return false
	}
	return !contains(d.DownloadExcluded, domain)
}

// ExcludedFromRewrite reports whether references to domain must stay absolute.
func (d Domains) ExcludedFromRewrite(domain string) bool {
	return domain == d.Main || contains(d.RewriteExcluded, domain)
}

// Queueable reports whether a discovered reference on domain goes to the download queue.
func (d Domains) Queueable(domain string) bool {
	return domain == d.RenderData
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
