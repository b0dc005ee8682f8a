package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pranavharshans/pdf-rag/internal/core/domain"
)

// execute runs the root command with injected fakes and returns the
// combined output.
func execute(t *testing.T, svc *Services, args ...string) (string, error) {
	t.Helper()

	SetServices(svc)
	t.Cleanup(func() {
		SetServices(nil)
		rootCmd.SetArgs(nil)
	})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, &Services{}, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "pdfrag version")
}

func TestStatusCmd_PrintsStateAndCount(t *testing.T) {
	index := &fakeIndexService{status: domain.IndexStatus{State: domain.IndexStateReady, EntryCount: 42}}

	out, err := execute(t, &Services{Index: index}, "status")
	require.NoError(t, err)

	assert.Contains(t, out, "ready")
	assert.Contains(t, out, "42")
}

func TestIndexCmd_DefaultsToEnsure(t *testing.T) {
	index := &fakeIndexService{status: domain.IndexStatus{State: domain.IndexStateReady, EntryCount: 7}}

	out, err := execute(t, &Services{Index: index}, "index")
	require.NoError(t, err)

	assert.Equal(t, 1, index.ensureCalls)
	assert.Zero(t, index.forceCalls)
	assert.Contains(t, out, "7 entries")
}

func TestIndexCmd_ForceFlag(t *testing.T) {
	index := &fakeIndexService{status: domain.IndexStatus{State: domain.IndexStateReady, EntryCount: 7}}

	_, err := execute(t, &Services{Index: index}, "index", "--force")
	require.NoError(t, err)
	t.Cleanup(func() { indexForce = false })

	assert.Zero(t, index.ensureCalls)
	assert.Equal(t, 1, index.forceCalls)
}

func TestAskCmd_StreamsAnswerAndSources(t *testing.T) {
	answer := &fakeAnswerService{
		fragments: []string{"The HOD of CSE is ", "Dr. Priya Sharma. [1]"},
		citations: []domain.Citation{{DocumentID: "handbook.pdf", Page: 12}},
	}

	out, err := execute(t, &Services{Answer: answer}, "ask", "Who is the HOD of CSE?")
	require.NoError(t, err)

	assert.Equal(t, "Who is the HOD of CSE?", answer.question)
	assert.Contains(t, out, "The HOD of CSE is Dr. Priya Sharma. [1]")
	assert.Contains(t, out, "Sources:")
	assert.Contains(t, out, "handbook.pdf, page 12")
}

func TestAskCmd_NoCitationsOmitsSources(t *testing.T) {
	answer := &fakeAnswerService{fragments: []string{"plain answer"}}

	out, err := execute(t, &Services{Answer: answer}, "ask", "question")
	require.NoError(t, err)

	assert.Contains(t, out, "plain answer")
	assert.NotContains(t, out, "Sources:")
}

func TestAskCmd_RequiresExactlyOneArg(t *testing.T) {
	_, err := execute(t, &Services{}, "ask")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestRootCmd_HasConfigAndVerboseFlags(t *testing.T) {
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	flag := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, flag)
	assert.Equal(t, "v", flag.Shorthand)
}
