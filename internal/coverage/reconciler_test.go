package coverage

import (
	"testing"

	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/analysis"
	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/diagnostics"
	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/dump"
	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/fingerprint"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fileID    = fingerprint.OfClass([]byte("com/example/File"))
	nodebugID = fingerprint.OfClass([]byte("com/example/NoDebug"))
	unknownID = fingerprint.OfClass([]byte("com/example/Unknown"))
)

func sealedCache(t *testing.T) *analysis.Cache {
	cache := analysis.NewCache(analysis.DuplicateFail, nil)
	register := func(fp fingerprint.Fingerprint, a *analysis.ClassAnalysis) {
		lookup, err := analysis.NewClassCoverageLookup(fp, a)
		require.NoError(t, err)
		require.NoError(t, cache.Register(lookup, a.ClassName+".class", cache.Len()))
	}
	register(fileID, &analysis.ClassAnalysis{
		ClassName:  "com/example/File",
		SourceFile: "File.java",
		ProbeCount: 7,
		Probes:     map[int][]int{0: {1, 2}, 1: {2, 3}, 2: {10}, 4: {20, 21}, 6: {30}},
	})
	register(nodebugID, &analysis.ClassAnalysis{
		ClassName:  "com/example/NoDebug",
		ProbeCount: 1,
	})
	require.NoError(t, cache.Seal())
	return cache
}

func newReconciler(t *testing.T, diags *diagnostics.Collector) *Reconciler {
	reconciler, err := NewReconciler(sealedCache(t), diags)
	require.NoError(t, err)
	return reconciler
}

func TestNewReconcilerRequiresSealedCache(t *testing.T) {
	cache := analysis.NewCache(analysis.DuplicateWarn, nil)
	lookup, err := analysis.NewClassCoverageLookup(fileID, &analysis.ClassAnalysis{ClassName: "com/example/File", ProbeCount: 1})
	require.NoError(t, err)
	require.NoError(t, cache.Register(lookup, "File.class", 0))

	_, err = NewReconciler(cache, nil)
	assert.Equal(t, ErrCacheNotSealed, err)

	require.NoError(t, cache.Seal())
	reconciler, err := NewReconciler(cache, nil)
	assert.NoError(t, err)
	assert.NotNil(t, reconciler)
}

func hits(count int, fired ...int) []bool {
	probes := make([]bool, count)
	for _, probe := range fired {
		probes[probe] = true
	}
	return probes
}

func TestReconcile(t *testing.T) {
	reconciler := newReconciler(t, diagnostics.NewCollector())

	b, err := reconciler.Reconcile(dump.ExecutionData{ID: fileID, Probes: hits(7, 0, 2)})

	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "com/example", b.Path())
	assert.Equal(t, "File.java", b.FileName())
	assert.Equal(t, "1-2,10", b.CoveredLines())
}

func TestReconcileWithoutHits(t *testing.T) {
	reconciler := newReconciler(t, diagnostics.NewCollector())

	b, err := reconciler.Reconcile(dump.ExecutionData{ID: fileID, Probes: hits(7)})

	assert.NoError(t, err)
	assert.Nil(t, b)
}

func TestReconcileProbeCountMismatch(t *testing.T) {
	reconciler := newReconciler(t, diagnostics.NewCollector())

	b, err := reconciler.Reconcile(dump.ExecutionData{ID: fileID, Probes: hits(5, 0, 1, 2, 3, 4)})

	require.Error(t, err)
	assert.Nil(t, b)
	assert.True(t, IsIntegrityError(err))
	mismatch, ok := err.(*ProbeCountMismatchError)
	require.True(t, ok)
	assert.Equal(t, 7, mismatch.Expected)
	assert.Equal(t, 5, mismatch.Actual)
}

func TestReconcileSoftDiagnostics(t *testing.T) {
	diags := diagnostics.NewCollector()
	reconciler := newReconciler(t, diags)

	for i := 0; i < 3; i++ {
		b, err := reconciler.Reconcile(dump.ExecutionData{ID: unknownID, Name: "com/example/Unknown", Probes: hits(2, 0)})
		assert.NoError(t, err)
		assert.Nil(t, b)
	}
	b, err := reconciler.Reconcile(dump.ExecutionData{ID: nodebugID, Probes: hits(1, 0)})
	assert.NoError(t, err)
	assert.Nil(t, b)
	b, err = reconciler.Reconcile(dump.ExecutionData{ID: fileID, Probes: hits(7, 3, 4)})
	assert.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "20-21", b.CoveredLines())
	b, err = reconciler.Reconcile(dump.ExecutionData{ID: fileID, Probes: hits(7, 5)})
	assert.NoError(t, err)
	assert.Nil(t, b)

	assert.Equal(t, 3, diags.Count(diagnostics.UnanalyzedClass, "com/example/Unknown"))
	assert.Equal(t, 1, diags.Count(diagnostics.MissingSourceFile, "com/example/NoDebug"))
	assert.Equal(t, []string{"com/example/File#3", "com/example/File#5"}, diags.Subjects(diagnostics.ProbeWithoutLines))
}

func TestReconcileDumpsOfOneTestMerge(t *testing.T) {
	reconciler := newReconciler(t, diagnostics.NewCollector())
	testwise := NewTestwiseCoverage()

	for _, fired := range [][]int{{0}, {1}} {
		acc, err := reconciler.ReconcileDump(&dump.CoverageDump{
			TestID: "T",
			Data:   []dump.ExecutionData{{ID: fileID, Probes: hits(7, fired...)}},
		})
		require.NoError(t, err)
		require.NoError(t, testwise.Accept(acc))
	}

	acc, ok := testwise.Get("T")
	require.True(t, ok)
	file, ok := acc.File("com/example", "File.java")
	require.True(t, ok)
	assert.Equal(t, "1-3", file.CoveredLines())
}

func TestReconcileDumpWithoutTestID(t *testing.T) {
	diags := diagnostics.NewCollector()
	reconciler := newReconciler(t, diags)
	testwise := NewTestwiseCoverage()

	acc, err := reconciler.ReconcileDump(&dump.CoverageDump{
		Data: []dump.ExecutionData{{ID: fileID, Probes: hits(7, 0)}},
	})

	require.NoError(t, err)
	assert.Nil(t, acc)
	require.NoError(t, testwise.Accept(acc))
	assert.Equal(t, 0, testwise.Len())
	assert.Equal(t, 1, diags.Occurrences(diagnostics.EmptyTestID))
}

func TestReconcileDumpIntegrityErrorFailsDump(t *testing.T) {
	reconciler := newReconciler(t, diagnostics.NewCollector())

	acc, err := reconciler.ReconcileDump(&dump.CoverageDump{
		TestID: "T",
		Data: []dump.ExecutionData{
			{ID: fileID, Probes: hits(7, 0)},
			{ID: fileID, Probes: hits(5, 0)},
		},
	})

	require.Error(t, err)
	assert.Nil(t, acc)
	assert.True(t, IsIntegrityError(err))
	_, ok := errors.Cause(err).(*ProbeCountMismatchError)
	assert.True(t, ok)
}

func TestIsIntegrityError(t *testing.T) {
	assert.False(t, IsIntegrityError(nil))
	assert.False(t, IsIntegrityError(errors.New("boom")))
	assert.True(t, IsIntegrityError(errors.Wrap(&CrossFileMergeError{}, "merge")))
}
