package cmd

import (
	"github.com/BitPonyLLC/framehue/pkg/ipc"
	"github.com/BitPonyLLC/framehue/pkg/util"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Keeps a theme current and answers clients over a socket",
	Long: "Holds the theme for a playback application. Clients ask for analyses, read, " +
		"or watch the theme through the socket. With --follow, the first line of a file " +
		"names the source being played and every change to it is analyzed.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		err := pidPath.CheckAndSet()
		if err != nil {
			return fail(20, err)
		}

		err = util.BeNice(viper.GetInt("nice"))
		if err != nil {
			log.Warn().Err(err).Msg("continuing at normal priority")
		}

		d, err := newDaemon(newAnalyzer, viper.GetString("serve.css-out"), cancelFunc)
		if err != nil {
			return fail(21, err)
		}

		onConfigChange(d.reload)

		ctx := cmd.Context()

		ipcServer = ipc.NewServer(d.log)
		d.register(ipcServer)

		sockPath := viper.GetString("sockpath")
		err = ipcServer.Start(ctx, sockPath)
		if err != nil {
			return fail(22, err)
		}

		if d.cssOut != "" {
			go d.writeCSS(ctx)
		}

		if followPath := viper.GetString("serve.follow"); followPath != "" {
			err = d.follow(ctx, followPath)
			if err != nil {
				return fail(23, err)
			}
		}

		log.Info().Str("sock", sockPath).Str("pid", pidPath.String()).Strs("commands", ipcServer.Commands()).Msg("serving")
		<-ctx.Done()
		log.Info().Msg("stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("follow", "", "file whose first line names the source being played")
	viper.BindPFlag("serve.follow", serveCmd.Flags().Lookup("follow"))

	serveCmd.Flags().String("css-out", "", "file to keep rewritten with the theme as CSS")
	viper.BindPFlag("serve.css-out", serveCmd.Flags().Lookup("css-out"))

	rootCmd.AddCommand(serveCmd)
}
