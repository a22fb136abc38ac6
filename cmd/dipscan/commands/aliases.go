package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/dipscan/internal/entity"
	"github.com/wonny/dipscan/internal/report"
)

// aliasesCmd represents the aliases command
var aliasesCmd = &cobra.Command{
	Use:   "aliases",
	Short: "회사명 별칭 테이블 조회",
	Long: `파일명 → 회사명 변환에 쓰이는 별칭 테이블을 매칭 순서대로 출력합니다.
ALIAS_FILE로 지정한 YAML 별칭이 내장 테이블보다 먼저 검사됩니다.

Example:
  go run ./cmd/dipscan aliases
  ALIAS_FILE=aliases.yaml go run ./cmd/dipscan aliases`,
	Args: cobra.NoArgs,
	RunE: runAliases,
}

func init() {
	rootCmd.AddCommand(aliasesCmd)
}

func runAliases(cmd *cobra.Command, args []string) error {
	cfg, _, err := bootstrap()
	if err != nil {
		return err
	}

	resolver, err := entity.FromFile(cfg.Analysis.AliasFile)
	if err != nil {
		return fmt.Errorf("load aliases: %w", err)
	}

	PrintTable(cmd.OutOrStdout(), aliasTable(resolver))
	return nil
}

func aliasTable(r *entity.Resolver) report.Table {
	t := report.Table{Name: "Aliases", Header: []string{"#", "match", "label"}}
	for i, a := range r.Aliases() {
		t.Rows = append(t.Rows, []interface{}{fmt.Sprintf("%d", i+1), a.Match, a.Label})
	}
	return t
}
