// Package preflight checks that docfinder can index a folder before it
// starts: the data directory is writable, there is disk space and
// enough file descriptors, pdftotext is installed and the embedding
// backend answers.
//
//	checker := preflight.New(preflight.WithOutput(os.Stdout))
//	results := checker.RunAll(ctx, preflight.Target{Folder: dir, DataDir: dataDir, Config: cfg})
//	checker.PrintResults(results)
//	if checker.HasCriticalFailures(results) {
//	    // refuse to index
//	}
package preflight
