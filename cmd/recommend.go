package cmd

import (
	"encoding/json"
	"fmt"

	"wakeup-checker/internal/recommend"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	genre         string
	recommendJSON bool
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "推荐适合作为闹钟的曲目",
	Args:  cobra.NoArgs,
	RunE:  runRecommend,
}

func init() {
	recommendCmd.Flags().StringVar(&genre, "genre", "", "按风格过滤 (例如 Ambient, Funk)")
	recommendCmd.Flags().BoolVar(&recommendJSON, "json", false, "以JSON格式输出")
}

func runRecommend(cmd *cobra.Command, args []string) error {
	recs := recommend.NewRecommender(nil).Recommend(genre)
	out := cmd.OutOrStdout()

	if recommendJSON {
		data, err := json.MarshalIndent(recs, "", "  ")
		if err != nil {
			return fmt.Errorf("JSON序列化失败: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"曲目", "艺术家", "风格", "理由", "链接"})
	for _, rec := range recs {
		tw.AppendRow(table.Row{rec.Title, rec.Artist, rec.Genre, rec.Reason, rec.URL})
	}
	fmt.Fprintln(out, tw.Render())
	return nil
}
