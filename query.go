package doctrail

import (
	"fmt"
	"time"

	"github.com/n2code/doctrail/internal/ledger"
	out "github.com/n2code/doctrail/internal/output"
)

const timestampFormat = "2006-01-02 15:04:05"

func (d *doctrail) PrintHistory(filePath string, flat bool) error {
	entries, err := d.LoadHistory(filePath)
	if err != nil {
		return err
	}
	token, _ := d.resolver.Lookup(mustAbsFilepath(filePath))

	if flat {
		for _, entry := range entries {
			d.Print(out.Required, "%s\n", entry)
		}
	} else {
		tree := out.NewVisualHistory(d.printer.Highlight(string(token)))
		for number, entry := range entries {
			tree.InsertVersion(d.entryLocation(entry), d.versionLabel(number+1, entry))
		}
		d.Print(out.Required, "%s", tree.Render())
	}

	summary := out.HistorySummary(len(entries), ledger.TotalTimeSpent(entries))
	d.Print(out.Normal, "%s\n", d.printer.Dim(summary))
	return nil
}

func (d *doctrail) entryLocation(entry ledger.Entry) string {
	if entry.FilePath == nil {
		return d.printer.Dim("<unknown path>")
	}
	return d.displayablePath(entry.Path())
}

func (d *doctrail) versionLabel(number int, entry ledger.Entry) string {
	label := fmt.Sprintf("#%d %s %s", number, entry.Timestamp.Local().Format(timestampFormat), d.printer.Dim(string(entry.Hash)))
	if entry.TimeSpent >= time.Second {
		label += " (+" + out.WritingTime(entry.TimeSpent) + ")"
	}
	if stored, err := d.blobs.Has(entry.Hash); err == nil && !stored {
		label += " " + d.printer.Alarm("[content missing]")
	}
	return label
}

func (d *doctrail) PrintVersion(hash string) error {
	data, err := d.RestoreVersion(hash)
	if err != nil {
		return err
	}
	d.Print(out.Required, "%s", data)
	return nil
}

func (d *doctrail) PrintMarks(filePath string) error {
	absoluteFilePath := mustAbsFilepath(filePath)
	token, attached := d.resolver.Lookup(absoluteFilePath)
	if !attached {
		return newCommandError(d.displayablePath(absoluteFilePath), ErrNoIdentity)
	}
	lineMarks, err := d.LoadMarks(token)
	if err != nil {
		return err
	}
	if len(lineMarks) == 0 {
		d.Print(out.Normal, "<no marks>\n")
		return nil
	}
	for _, line := range lineMarks.Lines() {
		d.Print(out.Required, "%s\n%s\n", d.printer.Highlight(fmt.Sprintf("line %d", line)), out.Indent(2, lineMarks[line].Note))
	}
	return nil
}
