package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"stitch/compile"
	"stitch/dsl"
	"stitch/resolve"
	"stitch/selector"
	"stitch/state"
	"stitch/template"
)

func runCompile(ctx context.Context, cmd *cli.Command) error {

	env := state.EnvFromContext(ctx)
	if cmd.NArg() == 0 {
		return fmt.Errorf("no template files to process")
	}

	warn := func(msg string, loc dsl.Location) {
		fields := make([]zap.Field, 0, 2)
		if len(loc.File) > 0 {
			fields = append(fields, zap.String("file", loc.File))
		}
		if loc.Line > 0 {
			fields = append(fields, zap.Int("line", loc.Line))
		}
		env.Log.Warn(msg, fields...)
	}

	parser := dsl.NewParser(env.Log)
	parser.AmbiguousWords(env.Cfg.Compiler.AmbiguousWords)
	env.Styles = resolve.NewCache(parser, os.ReadFile, env.Log)

	stylesPath := cmd.String("styles")
	text, err := os.ReadFile(stylesPath)
	if err != nil {
		return fmt.Errorf("unable to read stylesheet '%s': %w", stylesPath, err)
	}
	pr := parser.Parse(text, stylesPath, warn)
	rules, deps := resolve.Resolve(pr, stylesPath, env.Styles, warn)
	env.Log.Debug("stylesheet resolved",
		zap.String("file", stylesPath), zap.Int("rules", len(rules)), zap.Int("deps", len(deps)))

	engine := selector.NewEngine(env.Log)
	if len(env.Cfg.Compiler.RuntimePseudos) > 0 {
		engine.RuntimePseudos(env.Cfg.Compiler.RuntimePseudos)
	}

	var (
		errs error
		last *compile.Result
	)
	for _, name := range cmd.Args().Slice() {
		res, err := compileTemplate(env, engine, rules, name, warn)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		last = res
	}
	if errs == nil && last != nil && cmd.Bool("stylesheet") {
		if sheet := last.Stylesheet(); len(sheet) > 0 {
			fmt.Println("---")
			fmt.Print(sheet)
		}
	}
	return errs
}

func compileTemplate(env *state.LocalEnv, engine *selector.Engine, rules []*dsl.StyleRule, name string, warn dsl.WarnFunc) (*compile.Result, error) {

	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("unable to open template '%s': %w", name, err)
	}
	defer f.Close()

	roots, err := template.Load(f, env.Log)
	if err != nil {
		return nil, fmt.Errorf("unable to parse template '%s': %w", name, err)
	}

	res := compile.MatchAllWith(rules, roots, engine, env.Log, warn)

	fmt.Printf("%s:\n", name)
	for _, r := range roots {
		printNode(r, res, 1)
	}
	return res, nil
}

func printNode(n *template.Node, res *compile.Result, depth int) {
	var sb strings.Builder
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString("<")
	sb.WriteString(n.Tag)
	if len(n.ID) > 0 {
		sb.WriteString(" #")
		sb.WriteString(n.ID)
	}
	sb.WriteString(">")
	classes := append(append([]string(nil), n.Classes...), res.Classes(n)...)
	if len(classes) > 0 {
		sb.WriteString(" ")
		sb.WriteString(strings.Join(classes, " "))
	}
	if decls := res.Declarations(n); len(decls) > 0 {
		sb.WriteString(fmt.Sprintf(" (+%d declarations)", len(decls)))
	}
	fmt.Println(sb.String())
	for _, c := range n.Children {
		printNode(c, res, depth+1)
	}
}
