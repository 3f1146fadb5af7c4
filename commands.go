package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/grvbrk/vidcatalog/internal/auth"
	"github.com/grvbrk/vidcatalog/internal/models"
)

var addVideoCmd = &cobra.Command{
	Use:   "add-video",
	Short: "Add one video to the catalog",
	Long:  "Add one video to the catalog. Missing flags are prompted for on stdin.",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := models.VideoInput{}
		flags := cmd.Flags()
		in.Title, _ = flags.GetString("title")
		in.URL, _ = flags.GetString("url")
		in.Speaker, _ = flags.GetString("speaker")
		in.Description, _ = flags.GetString("description")
		tags, _ := flags.GetString("tags")

		reader := bufio.NewReader(cmd.InOrStdin())
		prompt := func(label string, v *string) {
			if *v != "" {
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ", label)
			line, _ := reader.ReadString('\n')
			*v = strings.TrimSpace(line)
		}
		prompt("Title", &in.Title)
		prompt("URL", &in.URL)
		prompt("Speaker", &in.Speaker)
		in.Tags = models.ParseTags(tags)

		application, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer application.Close()

		video, err := application.Catalog.CreateVideo(cmd.Context(), in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added video %d: %s\n", video.ID, video.Title)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Bulk import videos from a JSON array file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		application, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer application.Close()

		res := application.Catalog.ImportJSON(cmd.Context(), data)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "imported: %d\nskipped: %d\n", res.Success, res.Skipped)
		for _, e := range res.Errors {
			fmt.Fprintf(out, "error: %s\n", e)
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalog as JSON or CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		outPath, _ := cmd.Flags().GetString("out")
		if format != "json" && format != "csv" {
			return fmt.Errorf("unknown format %q, want json or csv", format)
		}

		application, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer application.Close()

		w := cmd.OutOrStdout()
		if outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}

		if format == "csv" {
			return application.Catalog.ExportCSV(cmd.Context(), w)
		}
		data, err := application.Catalog.ExportJSON(cmd.Context())
		if err != nil {
			return err
		}
		_, err = w.Write(append(data, '\n'))
		return err
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage database backups",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Take a backup now",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer application.Close()

		b, err := application.Backups.Create(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%d bytes)\n", b.Name, b.Size)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer application.Close()

		backups, err := application.Backups.List()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tSIZE\tCREATED")
		for _, b := range backups {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", b.Name, b.Size, b.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return tw.Flush()
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Replace the catalog with the contents of a backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer application.Close()

		if err := application.Backups.Restore(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", args[0])
		return nil
	},
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin user or reset its password",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")

		application, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer application.Close()

		created, err := auth.SetAdminPassword(cmd.Context(), application.Users, username, password)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s\n", username)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Updated password for %s\n", username)
		}
		return nil
	},
}

func init() {
	addVideoCmd.Flags().String("title", "", "video title")
	addVideoCmd.Flags().String("url", "", "video URL")
	addVideoCmd.Flags().String("speaker", "", "speaker name")
	addVideoCmd.Flags().String("tags", "", "comma separated tags")
	addVideoCmd.Flags().String("description", "", "description")

	exportCmd.Flags().String("format", "json", "json or csv")
	exportCmd.Flags().String("out", "", "write to this file instead of stdout")

	backupCmd.AddCommand(backupCreateCmd, backupListCmd, backupRestoreCmd)

	createAdminCmd.Flags().String("username", "admin", "admin username")
	createAdminCmd.Flags().String("password", "", "new password")
	_ = createAdminCmd.MarkFlagRequired("password")
}
