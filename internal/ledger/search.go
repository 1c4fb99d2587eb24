package ledger

import (
	"go.uber.org/zap"

	"github.com/n2code/doctrail/internal/content"
	"github.com/n2code/doctrail/internal/identity"
)

// LatestByHash finds the identity that most recently saved exactly the given content.
// Among all matching entries of all ledgers the newest timestamp wins; equal timestamps go to the greater token.
// Unreadable records are skipped so a single damaged ledger cannot block recovery of the others.
// The scan touches every record and is only meant for the rare case that no attached identity exists.
func (l *Ledger) LatestByHash(hash content.Hash) (match identity.Token, found bool, err error) {
	tokens, err := l.Tokens()
	if err != nil {
		return "", false, err
	}
	var best Entry
	for _, token := range tokens {
		entries, loadErr := l.loadRecord(l.recordPath(token))
		if loadErr != nil {
			l.logger.Warn("skipping unreadable ledger record during hash search",
				zap.String("token", string(token)), zap.Error(loadErr))
			continue
		}
		for _, entry := range entries {
			if entry.Hash != hash {
				continue
			}
			newer := entry.Timestamp.After(best.Timestamp)
			tieWon := entry.Timestamp.Equal(best.Timestamp) && token > match
			if !found || newer || tieWon {
				best = entry
				match = token
				found = true
			}
		}
	}
	return match, found, nil
}
