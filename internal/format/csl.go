package format

import (
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/genoscope/pkg/types"
)

// CSLItem is a dataset citation in CSL (Citation Style Language) form. The
// field names follow the CSL-YAML schema so output is consumable by Pandoc
// and reference managers.
type CSLItem struct {
	ID        string `yaml:"id"`
	Type      string `yaml:"type"`
	Title     string `yaml:"title"`
	Abstract  string `yaml:"abstract,omitempty"`
	Publisher string `yaml:"publisher"`
	Number    string `yaml:"number"`
	URL       string `yaml:"URL"`
	Note      string `yaml:"note,omitempty"`
}

// publishers names the archive behind each database.
var publishers = map[types.DatabaseID]string{
	types.DBNucleotide:   "NCBI Nucleotide",
	types.DBProtein:      "NCBI Protein",
	types.DBExpression:   "NCBI Gene Expression Omnibus",
	types.DBSequenceRead: "NCBI Sequence Read Archive",
}

// FormatCSL writes the records of rs as a CSL-YAML list to w.
func FormatCSL(rs types.ResultSet, w io.Writer) error {
	items := make([]CSLItem, len(rs.Results))
	for i, r := range rs.Results {
		items[i] = toCSLItem(r)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

func toCSLItem(r types.Record) CSLItem {
	item := CSLItem{
		ID:        r.Accession,
		Type:      "dataset",
		Title:     r.Title,
		Abstract:  r.Summary,
		Publisher: publishers[r.DatabaseID],
		Number:    r.Accession,
		URL:       r.DownloadURL,
	}
	if item.Publisher == "" {
		item.Publisher = "NCBI"
	}
	if r.Organism != "" {
		item.Note = "Organism: " + r.Organism
	}
	return item
}
