package cmd

import (
	"os"

	"github.com/BitPonyLLC/framehue/pkg/ipc"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// remoteRunning reports whether some other process is serving.
func remoteRunning() bool {
	pid := pidPath.Getpid()
	return pid != os.Getpid() && pidPath.IsRunning()
}

// sendViaIPC forwards a command to the serving process and prints whatever it
// replies until it hangs up (or this command's context ends).
func sendViaIPC(cmd *cobra.Command, args ...string) error {
	msg := ipc.Join(args...)

	log.Debug().Int("pid", pidPath.Getpid()).Str("cmd", msg).Msg("sending")

	client := &ipc.Client{
		RespCB: func(line string) bool {
			cmd.Println(line)
			return true
		},
	}

	err := client.Send(cmd.Context(), viper.GetString("sockpath"), msg)
	if err != nil {
		return fail(5, err)
	}

	return nil
}
