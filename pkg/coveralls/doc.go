// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package coveralls builds coverage reports in the Coveralls jobs API format
// and submits them to coveralls.io or a compatible endpoint.
//
// A report is assembled with a Builder:
//
//	file, err := coveralls.NewSourceFile("src/lib.go",
//		[]coveralls.Line{coveralls.NotCoverable(), coveralls.Hit(1), coveralls.Hit(0)})
//	b, err := coveralls.NewBuilder(coveralls.RepoToken(token))
//	err = b.AddSource(file)
//	report, err := b.Finalize()
//
// and sent with a Client:
//
//	client, err := coveralls.NewClient()
//	ack, err := client.Submit(ctx, report)
//
// All validation happens while the report is built; encoding a finalized
// report does not fail. Submit makes a single attempt and reports failures
// as *errors.Error values from package
// github.com/cicd-ai-toolkit/coveralls/pkg/errors; use errors.IsRetryable to
// decide whether another attempt makes sense.
package coveralls
