package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var artifactCmd = &cobra.Command{
	Use:   "artifact",
	Short: "Post work artifacts to issues",
}

var artifactPostCmd = &cobra.Command{
	Use:   "post <id-or-identifier> <type>",
	Short: "Post content as a comment headed by the artifact type",
	Long: `Post content as a markdown comment under a "## <type>" heading.

Content comes from --content, --file, or standard input when neither is set.

Example:
  speclinear artifact post TIM-123 Research --file findings.md`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := artifactContent(cmd)
		if err != nil {
			return err
		}
		return withSession(cmd, func(ctx context.Context, s *session) error {
			c, err := s.mutations.PostArtifact(ctx, args[0], args[1], content)
			if err != nil {
				return err
			}
			return s.out.Comment(c)
		})
	},
}

func init() {
	rootCmd.AddCommand(artifactCmd)
	artifactCmd.AddCommand(artifactPostCmd)

	artifactPostCmd.Flags().String("content", "", "Artifact content")
	artifactPostCmd.Flags().String("file", "", "Read artifact content from a file")
	artifactPostCmd.MarkFlagsMutuallyExclusive("content", "file")
}

func artifactContent(cmd *cobra.Command) (string, error) {
	f := cmd.Flags()
	if f.Changed("content") {
		v, _ := f.GetString("content")
		return v, nil
	}

	var data []byte
	var err error
	if path, _ := f.GetString("file"); path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return "", fmt.Errorf("failed to read artifact content: %w", err)
	}

	content := strings.TrimRight(string(data), "\n")
	if strings.TrimSpace(content) == "" {
		return "", errors.New("artifact content is empty")
	}
	return content, nil
}
