package doctrail

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/n2code/doctrail/internal"
	"github.com/n2code/doctrail/internal/content"
	"github.com/n2code/doctrail/internal/identity"
	"github.com/n2code/doctrail/internal/ledger"
	"github.com/n2code/doctrail/internal/marks"
	out "github.com/n2code/doctrail/internal/output"
)

func (d *doctrail) Save(path string, data []byte) (SaveResult, error) {
	return d.SaveTracked(path, data, 0)
}

func (d *doctrail) SaveTracked(filePath string, data []byte, timeSpent time.Duration) (SaveResult, error) {
	if timeSpent < 0 {
		return SaveResult{}, newCommandError(timeSpent.String(), ErrNegativeTimeSpent)
	}
	absoluteFilePath := mustAbsFilepath(filePath)
	hash := content.Compute(data)

	if err := d.blobs.Put(hash, data); err != nil {
		return SaveResult{}, newCommandError(fmt.Sprintf("storing content of %s failed", d.displayablePath(absoluteFilePath)), err)
	}

	token, origin, err := d.resolver.ResolveOrCreate(absoluteFilePath, hash)
	if err != nil {
		return SaveResult{}, newCommandError("identity resolution failed", err)
	}

	entry := ledger.NewEntry(hash, internal.UtcNow(), absoluteFilePath)
	entry.TimeSpent = timeSpent.Truncate(time.Second)
	entries, err := d.history.Append(token, entry)
	if err != nil {
		return SaveResult{}, newCommandError(fmt.Sprintf("recording version of %s failed", d.displayablePath(absoluteFilePath)), err)
	}

	result := SaveResult{
		Token:     token,
		Hash:      hash,
		Origin:    origin,
		Versions:  len(entries),
		TotalTime: ledger.TotalTimeSpent(entries),
	}
	d.logger.Debug("version saved",
		zap.String("path", absoluteFilePath),
		zap.String("token", string(token)),
		zap.String("hash", string(hash)),
		zap.Stringer("origin", origin),
		zap.Int("versions", result.Versions))
	switch origin {
	case identity.OriginCreated:
		d.Print(out.Normal, "Tracking %s as new document %s\n", d.displayablePath(absoluteFilePath), token)
	case identity.OriginRecovered:
		d.Print(out.Normal, "Recognized %s as document %s by its content\n", d.displayablePath(absoluteFilePath), token)
	}
	d.Print(out.Normal, "Saved %s as version %d (%s)\n", d.displayablePath(absoluteFilePath), result.Versions, hash.Short())
	return result, nil
}

func (d *doctrail) WriteAndSave(filePath string, data []byte, timeSpent time.Duration) (SaveResult, error) {
	if timeSpent < 0 {
		return SaveResult{}, newCommandError(timeSpent.String(), ErrNegativeTimeSpent)
	}
	absoluteFilePath := mustAbsFilepath(filePath)
	//truncating keeps the inode and thereby the attached identity, a rename would drop it
	if err := os.WriteFile(absoluteFilePath, data, 0o644); err != nil {
		return SaveResult{}, newCommandError("writing document failed", err)
	}
	return d.SaveTracked(absoluteFilePath, data, timeSpent)
}

func (d *doctrail) LoadHistory(filePath string) ([]ledger.Entry, error) {
	absoluteFilePath := mustAbsFilepath(filePath)
	token, attached := d.resolver.Lookup(absoluteFilePath)
	if !attached {
		return nil, newCommandError(d.displayablePath(absoluteFilePath), ErrNoIdentity)
	}
	return d.LoadHistoryByToken(token)
}

func (d *doctrail) LoadHistoryByToken(token identity.Token) ([]ledger.Entry, error) {
	entries, err := d.history.Load(token)
	if err != nil {
		return nil, newCommandError("history unavailable", err)
	}
	return entries, nil
}

func (d *doctrail) RestoreVersion(hashText string) ([]byte, error) {
	data, err := d.blobs.Get(content.Hash(hashText))
	if err != nil {
		return nil, newCommandError("version not restorable", err)
	}
	d.Print(out.Verbose, "Restored %s from %s\n", out.ContentSize(len(data)), hashText)
	return data, nil
}

func (d *doctrail) GetUuid(filePath string, data []byte) (identity.Token, error) {
	token, _, err := d.resolver.ResolveOrCreate(mustAbsFilepath(filePath), content.Compute(data))
	if err != nil {
		return "", newCommandError("identity resolution failed", err)
	}
	return token, nil
}

func (d *doctrail) GetFileMetadata(filePath string, data []byte) (FileMetadata, error) {
	token, origin, err := d.resolver.ResolveOrCreate(mustAbsFilepath(filePath), content.Compute(data))
	if err != nil {
		return FileMetadata{}, newCommandError("identity resolution failed", err)
	}
	entries, err := d.LoadHistoryByToken(token)
	if err != nil {
		return FileMetadata{}, err
	}
	return FileMetadata{
		Token:     token,
		Origin:    origin,
		Versions:  len(entries),
		TotalTime: ledger.TotalTimeSpent(entries),
	}, nil
}

func (d *doctrail) LoadMarks(token identity.Token) (marks.Marks, error) {
	loaded, err := d.marks.Load(token)
	if err != nil {
		return nil, newCommandError("marks unavailable", err)
	}
	return loaded, nil
}

func (d *doctrail) SaveMarks(token identity.Token, lineMarks marks.Marks) error {
	if err := d.marks.Save(token, lineMarks); err != nil {
		return newCommandError("marks not saved", err)
	}
	d.Print(out.Verbose, "Saved %s of %s\n", out.Count(len(lineMarks), "mark", "marks"), token)
	return nil
}

func (d *doctrail) Verify(ctx context.Context) ([]content.Hash, error) {
	mismatches, err := d.blobs.Verify(ctx, content.DefaultVerifyWorkers)
	if err != nil {
		return nil, newCommandError("verification aborted", err)
	}
	for _, hash := range mismatches {
		d.logger.Warn("blob content does not match its name", zap.String("hash", string(hash)))
	}
	return mismatches, nil
}
