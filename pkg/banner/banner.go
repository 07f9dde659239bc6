package banner

import (
	"fmt"

	"mediadex/pkg/config"
)

const banner = `
███╗   ███╗███████╗██████╗ ██╗ █████╗ ██████╗ ███████╗██╗  ██╗
████╗ ████║██╔════╝██╔══██╗██║██╔══██╗██╔══██╗██╔════╝╚██╗██╔╝
██╔████╔██║█████╗  ██║  ██║██║███████║██║  ██║█████╗   ╚███╔╝
██║╚██╔╝██║██╔══╝  ██║  ██║██║██╔══██║██║  ██║██╔══╝   ██╔██╗
██║ ╚═╝ ██║███████╗██████╔╝██║██║  ██║██████╔╝███████╗██╔╝ ██╗
╚═╝     ╚═╝╚══════╝╚═════╝ ╚═╝╚═╝  ╚═╝╚═════╝ ╚══════╝╚═╝  ╚═╝
`

// Print renders the startup banner with the effective runtime config.
func Print(eff config.Effective, version string) {
	addr := eff.Addr
	if addr == "" && eff.Config != nil {
		addr = eff.Config.Addr()
	}
	dbPath := eff.DBPath
	if dbPath == "" && eff.Config != nil {
		dbPath = eff.Config.Storage.DBPath
	}
	src := eff.Source
	if src == "" {
		src = "flags"
	}

	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("DB Path:  %s\n", dbPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	fmt.Printf("Config sources: %s\n", src)

	if eff.Config != nil {
		fmt.Println("\n== Runtime ====================================================")
		fmt.Printf("- Page size: %d\n", eff.Config.Search.PageSize)
		fmt.Printf("- Session capacity: %d\n", eff.Config.Search.SessionCapacity)
		fmt.Printf("- Caption search: %v\n", eff.Config.Search.IndexCaptions)
		if eff.Config.Entitlement.Enabled {
			if eff.Config.Entitlement.Cron != "" {
				fmt.Printf("- Expiry sweeps: enabled (cron=%s)\n", eff.Config.Entitlement.Cron)
			} else {
				fmt.Printf("- Expiry sweeps: enabled (interval=%s)\n", eff.Config.Entitlement.Interval.Duration())
			}
		} else {
			fmt.Println("- Expiry sweeps: disabled")
		}
	}

	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("GET    /v1/search?key=&q=&shard=&offset= - Start or page a search session")
	fmt.Println("POST   /v1/search/{key}/shard            - Re-run a session on another shard")
	fmt.Println("POST   /v1/files                         - Ingest a media reference")
	fmt.Println("GET    /v1/files/{id}                    - Look up a file across shards")
	fmt.Println("DELETE /v1/files?q=&shard=               - Delete matching records")
	fmt.Println("POST   /v1/files/relocate                - Move matching records between shards")
	fmt.Println("GET    /v1/stats                         - Shard counts and disk usage")
	fmt.Println("POST   /v1/entitlements/{subject}        - Grant an entitlement")
	fmt.Println("GET    /swagger/                         - Interactive API docs")

	fmt.Println("\n== Examples ===================================================")
	fmt.Printf("curl 'http://localhost%s/v1/search?key=100-7&q=matrix+1999' -H 'X-API-Key: <admin>'\n", addr)
	fmt.Printf("curl -X POST 'http://localhost%s/v1/entitlements/u42' -d '{\"days\": 30}' -H 'X-API-Key: <admin>'\n", addr)

	fmt.Println("\n== Production? =================================================")
	fmt.Println("Set a proper storage path (--db)")
	fmt.Println("Configure admin API keys (MEDIADEX_API_ADMIN_KEYS)")

	fmt.Println("\n== Logs: =================================================")
}
