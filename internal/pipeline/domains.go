package pipeline

import (
	"sort"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/datakith/cleanse/internal/model"
)

// topDomainCount caps the email-domain summary in the report.
const topDomainCount = 5

// domainSummary counts registrable email domains (eTLD+1) across the
// batch, so "a.mail.acme.co.uk" and "mail.acme.co.uk" both roll up to
// "acme.co.uk". Hosts the public suffix list cannot resolve are counted
// as-is.
func domainSummary(emails []string) []model.DomainCount {
	counts := make(map[string]int)
	for _, email := range emails {
		at := strings.LastIndex(email, "@")
		if at < 0 || at == len(email)-1 {
			continue
		}
		host := email[at+1:]
		if domain, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
			host = domain
		}
		counts[host]++
	}

	summary := make([]model.DomainCount, 0, len(counts))
	for domain, n := range counts {
		summary = append(summary, model.DomainCount{Domain: domain, Count: n})
	}
	sort.Slice(summary, func(i, j int) bool {
		if summary[i].Count != summary[j].Count {
			return summary[i].Count > summary[j].Count
		}
		return summary[i].Domain < summary[j].Domain
	})

	if len(summary) > topDomainCount {
		summary = summary[:topDomainCount]
	}
	return summary
}
