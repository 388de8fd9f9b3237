package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanonone/readgraph/pkg/core/types"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// packTestData packs four reads in a same-strand chain 0-1-2-3, read 1 chimeric.
func packTestData(t *testing.T) string {
	t.Helper()
	in := t.TempDir()
	files := map[string]string{
		"reads.fa": ">r0\nACGTAC\n>r1\nGGGCCA\n>r2\nTTAGC\n>r3\nCATG\n",
		"aln.tsv":  "0 1 1 10 0 6\n1 2 1 10 0 5\n2 3 1 10 0 4\n",
		"chimeric": "1\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(in, name), []byte(body), 0644))
	}

	dataDir := filepath.Join(t.TempDir(), "data")
	out, err := run(t, "pack",
		"--data-dir", dataDir,
		"--fasta", filepath.Join(in, "reads.fa"),
		"--alignments", filepath.Join(in, "aln.tsv"),
		"--chimeric", filepath.Join(in, "chimeric"))
	require.NoError(t, err)
	assert.Contains(t, out, "Packed 4 reads (21 bases) and 3 alignments")
	return dataDir
}

func TestLocalReadsWritesFasta(t *testing.T) {
	dataDir := packTestData(t)
	output := filepath.Join(t.TempDir(), "LocalReadGraph.fasta")

	out, err := run(t, "local-reads", "--data-dir", dataDir, "--output", output,
		"--readId", "0", "--strand", "0", "--maxDistance", "2", "--allowChimericReads")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 3 oriented reads")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t,
		">0-0 distance=0 length=6 name=r0\nACGTAC\n"+
			">1-0 distance=1 length=6 name=r1\nGGGCCA\n"+
			">2-0 distance=2 length=5 name=r2\nTTAGC\n",
		string(data))
}

func TestLocalReadsExcludesChimericReads(t *testing.T) {
	dataDir := packTestData(t)
	output := filepath.Join(t.TempDir(), "out.fasta")

	_, err := run(t, "local-reads", "--data-dir", dataDir, "-o", output,
		"--readId", "0", "--strand", "0", "--maxDistance", "2")
	require.NoError(t, err)
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, ">0-0 distance=0 length=6 name=r0\nACGTAC\n", string(data))

	_, err = run(t, "local-reads", "--data-dir", dataDir, "-o", output,
		"--readId", "0", "--strand", "0", "--maxDistance", "2", "--chimericPolicy", "dead-end")
	require.NoError(t, err)
	data, err = os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), ">1-0 distance=1")
	assert.NotContains(t, string(data), ">2-0")
}

func TestLocalReadsErrors(t *testing.T) {
	dataDir := packTestData(t)
	output := filepath.Join(t.TempDir(), "out.fasta")

	_, err := run(t, "local-reads", "--data-dir", dataDir, "-o", output,
		"--readId", "9", "--strand", "0", "--maxDistance", "1")
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = run(t, "local-reads", "--data-dir", dataDir, "-o", output,
		"--readId", "0", "--strand", "2", "--maxDistance", "1")
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = run(t, "local-reads", "--data-dir", dataDir, "-o", output,
		"--readId", "0", "--strand", "0", "--maxDistance", "1", "--chimericPolicy", "maybe")
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = run(t, "local-reads", "--data-dir", dataDir, "--readId", "0", "--strand", "0")
	assert.ErrorContains(t, err, "maxDistance")

	_, err = run(t, "local-reads", "--data-dir", t.TempDir(), "-o", output,
		"--readId", "0", "--strand", "0", "--maxDistance", "1")
	assert.ErrorIs(t, err, types.ErrStorageUnavailable)

	assert.NoFileExists(t, output)
}

func TestLocalReadsUsesConfigFile(t *testing.T) {
	dataDir := packTestData(t)
	output := filepath.Join(t.TempDir(), "from-config.fasta")
	cfgPath := filepath.Join(t.TempDir(), "readgraph.yaml")
	t.Setenv("READGRAPH_TEST_DIR", dataDir)
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"data_dir: ${READGRAPH_TEST_DIR}\n"+
			"output: "+output+"\n"+
			"line_width: 4\n"+
			"query:\n  allow_chimeric_reads: true\n"), 0644))

	_, err := run(t, "local-reads", "--config", cfgPath, "--readId", "1", "--strand", "1", "--maxDistance", "1")
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t,
		">1-1 distance=0 length=6 name=r1\nTGGC\nCC\n"+
			">0-1 distance=1 length=6 name=r0\nGTAC\nGT\n"+
			">2-1 distance=1 length=5 name=r2\nGCTA\nA\n",
		string(data))
}

func TestInfo(t *testing.T) {
	dataDir := packTestData(t)
	metricsFile := filepath.Join(t.TempDir(), "readgraph.prom")

	out, err := run(t, "info", "--data-dir", dataDir, "--metrics-file", metricsFile)
	require.NoError(t, err)
	assert.Regexp(t, `Reads:\s+4`, out)
	assert.Regexp(t, `Chimeric reads:\s+1`, out)
	assert.Regexp(t, `Alignments:\s+3`, out)
	assert.Regexp(t, `Alignment table:\s+on disk`, out)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "readgraph_store_reads 4")
}
