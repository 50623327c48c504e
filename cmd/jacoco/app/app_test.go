package app

import (
	"archive/zip"
	"bytes"
	"io/ioutil"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	root := NewRootCommand()

	convertCmd, _, err := root.Find([]string{"convert"})
	require.NoError(t, err)
	assert.Equal(t, "convert", convertCmd.Name())
	for _, property := range config.Properties() {
		assert.NotNil(t, convertCmd.Flags().Lookup(property), property)
	}
	assert.NotNil(t, convertCmd.Flags().Lookup("config"))
}

func TestConvertCommandRejectsInvalidConfiguration(t *testing.T) {
	root := NewRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"convert", "--class-dirs", "build/classes", "--analyzer-command", "analyze", "--duplicates", "ignore"})

	assert.Error(t, root.Execute())
}

func TestConvertCommand(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	dir := t.TempDir()

	// the fake analyzer echoes the class body, which is the analysis itself
	jar := filepath.Join(dir, "app.jar")
	out, err := os.Create(jar)
	require.NoError(t, err)
	archive := zip.NewWriter(out)
	w, err := archive.Create("com/example/Foo.class")
	require.NoError(t, err)
	_, err = w.Write([]byte(`{"className":"com/example/Foo","sourceFile":"Foo.java","probes":{"0":[3,4]}}`))
	require.NoError(t, err)
	require.NoError(t, archive.Close())
	require.NoError(t, out.Close())

	properties := filepath.Join(dir, "testwise.properties")
	require.NoError(t, ioutil.WriteFile(properties, []byte("analyzer-command = sh -c cat\nlog-level = warn\n"), 0644))
	output := filepath.Join(dir, "out", "testwise.json")

	root := NewRootCommand()
	root.SetArgs([]string{"convert", "--config", properties, "--class-dirs", jar, "--output", output})
	require.NoError(t, root.Execute())

	data, err := ioutil.ReadFile(filepath.Join(dir, "out", "testwise-1.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"tests":[]}`, string(data))
}
