package app

// Command はサブコマンド名。
type Command string

const (
	CommandServe       Command = "serve"       // APIサーバー（デフォルト）
	CommandMigrate     Command = "migrate"     // スキーマを最新版まで適用
	CommandHealthcheck Command = "healthcheck" // distrolessイメージのHEALTHCHECK用
)

var knownCommands = map[string]Command{
	string(CommandServe):       CommandServe,
	string(CommandMigrate):     CommandMigrate,
	string(CommandHealthcheck): CommandHealthcheck,
}

// ParseCommand は先頭の引数をサブコマンドとして解釈する。
// 引数なし、または未知の名前はserveとみなす。2番目以降の引数は見ない。
func ParseCommand(args []string) Command {
	if len(args) > 0 {
		if cmd, ok := knownCommands[args[0]]; ok {
			return cmd
		}
	}
	return CommandServe
}
