// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vocab

import "github.com/pdiddy/genoscope/pkg/types"

// Canonical data-type tokens.
const (
	DataRNASeq          = "RNA-seq"
	DataSingleCell      = "single-cell RNA-seq"
	DataChIPSeq         = "ChIP-seq"
	DataDNASeq          = "DNA-seq"
	DataNucleotide      = "nucleotide sequence"
	DataProtein         = "protein sequence"
	DataExpressionArray = "expression array"
)

// DefaultTables returns the built-in vocabulary. Organisms use NCBI Taxonomy
// scientific names so they can be sent to the [Organism] field unchanged.
func DefaultTables() Tables {
	return Tables{
		Organisms: []Organism{
			{Name: "homo sapiens", Synonyms: []string{"human", "humans", "patient", "patients", "h sapiens"}},
			{Name: "mus musculus", Synonyms: []string{"mouse", "mice", "murine", "m musculus"}},
			{Name: "rattus norvegicus", Synonyms: []string{"rat", "rats", "rattus"}},
			{Name: "danio rerio", Synonyms: []string{"zebrafish", "zebra fish"}},
			{Name: "drosophila melanogaster", Synonyms: []string{"drosophila", "fruit fly", "fruit flies", "fly", "flies"}},
			{Name: "saccharomyces cerevisiae", Synonyms: []string{"yeast", "budding yeast", "saccharomyces"}},
			{Name: "caenorhabditis elegans", Synonyms: []string{"c elegans", "nematode", "nematodes"}},
			{Name: "arabidopsis thaliana", Synonyms: []string{"arabidopsis", "thale cress"}},
		},
		DataTypes: []DataType{
			{
				Name:      DataRNASeq,
				Synonyms:  []string{"rna seq", "rnaseq", "transcriptome", "transcriptomes", "transcriptomic", "transcriptomics"},
				Databases: []types.DatabaseID{types.DBExpression, types.DBSequenceRead},
				Clauses: map[types.DatabaseID]string{
					types.DBExpression:   `"expression profiling by high throughput sequencing"[DataSet Type]`,
					types.DBSequenceRead: `"rna seq"[Strategy]`,
				},
				Labels: []string{"RNA-Seq", "Expression profiling by high throughput sequencing", "TRANSCRIPTOMIC"},
			},
			{
				Name:      DataSingleCell,
				Synonyms:  []string{"single cell", "single-cell", "scrna-seq", "scrnaseq", "single cell rna-seq", "single cell rna seq", "single-cell rna seq"},
				Databases: []types.DatabaseID{types.DBExpression, types.DBSequenceRead},
				Clauses: map[types.DatabaseID]string{
					types.DBExpression:   `"single cell"[All Fields] AND "expression profiling by high throughput sequencing"[DataSet Type]`,
					types.DBSequenceRead: `"rna seq"[Strategy] AND "single cell"[All Fields]`,
				},
				Labels: []string{"TRANSCRIPTOMIC SINGLE CELL"},
			},
			{
				Name:      DataChIPSeq,
				Synonyms:  []string{"chip seq", "chipseq", "chromatin immunoprecipitation", "histone", "histones"},
				Databases: []types.DatabaseID{types.DBExpression, types.DBSequenceRead},
				Clauses: map[types.DatabaseID]string{
					types.DBExpression:   `"genome binding/occupancy profiling by high throughput sequencing"[DataSet Type]`,
					types.DBSequenceRead: `"chip seq"[Strategy]`,
				},
				Labels: []string{"ChIP-Seq", "Genome binding/occupancy profiling by high throughput sequencing"},
			},
			{
				Name:      DataDNASeq,
				Synonyms:  []string{"dna seq", "dnaseq", "whole genome", "whole genome sequencing", "wgs", "genome sequencing", "genomic", "exome", "exome sequencing"},
				Databases: []types.DatabaseID{types.DBNucleotide, types.DBSequenceRead},
				Clauses: map[types.DatabaseID]string{
					types.DBNucleotide:   `biomol_genomic[PROP]`,
					types.DBSequenceRead: `("wgs"[Strategy] OR "wxs"[Strategy])`,
				},
				Labels: []string{"WGS", "WXS", "GENOMIC"},
			},
			{
				Name:      DataNucleotide,
				Synonyms:  []string{"nucleotide", "nucleotides", "nucleotide sequences", "dna", "dna sequence", "dna sequences", "mrna", "cdna", "gene sequence", "gene sequences"},
				Databases: []types.DatabaseID{types.DBNucleotide},
				Labels:    []string{"dna", "rna", "mrna", "nucleic acid"},
			},
			{
				Name:      DataProtein,
				Synonyms:  []string{"protein", "proteins", "protein sequences", "proteome", "proteomes", "proteomic", "proteomics", "amino acid sequence", "amino acid sequences"},
				Databases: []types.DatabaseID{types.DBProtein},
				Labels:    []string{"protein", "aa"},
			},
			{
				Name:      DataExpressionArray,
				Synonyms:  []string{"microarray", "microarrays", "expression arrays", "gene expression array", "expression profiling by array"},
				Databases: []types.DatabaseID{types.DBExpression},
				Clauses: map[types.DatabaseID]string{
					types.DBExpression: `"expression profiling by array"[DataSet Type]`,
				},
				Labels: []string{"Expression profiling by array"},
			},
		},
		Conditions: []Condition{
			{Name: "breast cancer", MeSH: "Breast Neoplasms", Synonyms: []string{"breast cancers", "breast tumor", "breast tumors", "breast tumour", "breast carcinoma", "mammary carcinoma"}},
			{Name: "lung cancer", MeSH: "Lung Neoplasms", Synonyms: []string{"lung tumor", "lung carcinoma", "nsclc"}},
			{Name: "colorectal cancer", MeSH: "Colorectal Neoplasms", Synonyms: []string{"colon cancer", "rectal cancer", "crc"}},
			{Name: "prostate cancer", MeSH: "Prostatic Neoplasms", Synonyms: []string{"prostate tumor", "prostate carcinoma"}},
			{Name: "cancer", MeSH: "Neoplasms", Synonyms: []string{"cancers", "tumor", "tumors", "tumour", "tumours", "carcinoma", "neoplasm", "neoplasms", "malignant", "oncology"}},
			{Name: "alzheimer disease", MeSH: "Alzheimer Disease", Synonyms: []string{"alzheimer", "alzheimers", "alzheimers disease"}},
			{Name: "parkinson disease", MeSH: "Parkinson Disease", Synonyms: []string{"parkinson", "parkinsons", "parkinsons disease"}},
			{Name: "dementia", MeSH: "Dementia", Synonyms: []string{"neurodegenerative", "neurodegeneration"}},
			{Name: "diabetes", MeSH: "Diabetes Mellitus", Synonyms: []string{"diabetic", "diabetes mellitus", "type 2 diabetes", "t2d"}},
			{Name: "covid-19", MeSH: "COVID-19", Synonyms: []string{"covid", "covid19", "sars-cov-2", "coronavirus"}},
			{Name: "cardiovascular disease", MeSH: "Cardiovascular Diseases", Synonyms: []string{"cardiovascular", "heart disease", "cardiac", "coronary"}},
			{Name: "asthma", MeSH: "Asthma", Synonyms: []string{"asthmatic"}},
			{Name: "obesity", MeSH: "Obesity", Synonyms: []string{"obese"}},
			{Name: "schizophrenia", MeSH: "Schizophrenia", Synonyms: []string{"schizophrenic"}},
		},
		StopWords: []string{
			"a", "an", "the", "and", "or", "of", "in", "on", "for", "with", "to", "from", "about",
			"find", "show", "get", "give", "list", "search", "look", "looking", "me", "my", "i",
			"want", "need", "please", "any", "some", "all", "is", "are", "there", "what", "which",
			"data", "dataset", "datasets", "study", "studies", "related",
		},
		Refinements: []Refinement{
			{
				Name:     "clinical samples",
				Triggers: []string{"biopsy", "biopsies", "tissue", "tissues"},
				Include:  []string{"biopsy", "tissue", "primary"},
				Exclude:  []string{"cell line", "mcf", "hela", "culture"},
			},
		},
		Syntax: map[types.DatabaseID]Syntax{
			types.DBNucleotide:   {OrganismTag: "[Organism]", TextTag: "[All Fields]"},
			types.DBProtein:      {OrganismTag: "[Organism]", TextTag: "[All Fields]"},
			types.DBExpression:   {OrganismTag: "[Organism]", TextTag: "[All Fields]", MeSHTag: "[MeSH Terms]"},
			types.DBSequenceRead: {OrganismTag: "[Organism]", TextTag: "[All Fields]"},
		},
	}
}
