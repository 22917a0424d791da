// Copyright 2026 The ZenaManage Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// matrixctl works with the permission matrix from the command line,
// talking straight to the database. It exists so operators can export,
// review and re-import role permissions without going through the API.
//
// Usage:
//
//	matrixctl export [-full] [-o matrix.csv]
//	matrixctl validate -i matrix.csv
//	matrixctl import -i matrix.csv [-actor user-id]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/kha997/zenamanage/internal/audit"
	"github.com/kha997/zenamanage/internal/config"
	"github.com/kha997/zenamanage/internal/matrix"
	"github.com/kha997/zenamanage/internal/permission"
	"github.com/kha997/zenamanage/internal/rbac"
	"github.com/kha997/zenamanage/internal/store/postgres"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "export":
		err = runExport(os.Args[2:])
	case "validate":
		err = runValidate(os.Args[2:])
	case "import":
		err = runImport(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "matrixctl: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: matrixctl <export|validate|import> [flags]")
}

func newMatrixService(ctx context.Context) (*matrix.Service, *postgres.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return nil, nil, err
	}

	registry := permission.NewCatalogRegistry()
	auditLogger := audit.Fanout{
		audit.NewSlogLogger(),
		&audit.RecorderLogger{Recorder: postgres.NewAuditRepository(db)},
	}
	rbacService := rbac.NewService(postgres.NewRBACRepository(db), registry, auditLogger)
	return matrix.NewService(registry, rbacService), db, nil
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	full := fs.Bool("full", false, "emit the complete grid including granted=false rows")
	out := fs.String("o", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	svc, db, err := newMatrixService(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := svc.Export(ctx, *full)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return matrix.WriteCSV(w, rows)
}

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	in := fs.String("i", "", "input CSV file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("validate requires -i <file>")
	}

	ctx := context.Background()
	svc, db, err := newMatrixService(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, errs, err := readFile(*in)
	if err != nil {
		return err
	}
	semantic, err := svc.Validate(ctx, rows)
	if err != nil {
		return err
	}
	errs = append(errs, semantic...)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "line %d: %s: %s\n", e.Line, e.Field, e.Message)
		}
		return fmt.Errorf("%d validation errors", len(errs))
	}
	fmt.Printf("ok: %d rows\n", len(rows))
	return nil
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	in := fs.String("i", "", "input CSV file")
	actor := fs.String("actor", "system", "actor user id recorded in the audit trail")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("import requires -i <file>")
	}

	ctx := context.Background()
	svc, db, err := newMatrixService(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, errs, err := readFile(*in)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "line %d: %s: %s\n", e.Line, e.Field, e.Message)
		}
		return fmt.Errorf("%d validation errors, nothing imported", len(errs))
	}

	result, err := svc.Import(ctx, *actor, rows)
	if err != nil {
		return err
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}
	fmt.Printf("imported: %d roles updated\n", result.RolesUpdated)
	return nil
}

func readFile(path string) ([]matrix.Row, matrix.ValidationErrors, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return matrix.ReadCSV(f)
}
