package registry

import (
	"database/sql"
	"sync"

	"github.com/mattn/go-sqlite3"
)

// driverName is the name under which the custom sqlite3 driver (with the
// registry's pattern functions attached) is registered with database/sql.
// The registry registers it lazily exactly once, since sql.Register panics
// if called twice with the same name.
const driverName = "sqlite3_wutag"

var registerOnce sync.Once

// registerDriver registers the wutag sqlite3 driver, wiring up wutag_regexp,
// wutag_iregexp, wutag_glob, wutag_iglob, wutag_pcre, and wutag_ipcre as
// custom scalar SQL functions on every new connection, per the registry's
// pattern-query contract.
func registerDriver() {
	registerOnce.Do(func() {
		sql.Register(driverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				fns := map[string]func(string, string) (bool, error){
					"wutag_regexp": func(pattern, s string) (bool, error) { return matchRegex(pattern, s, false) },
					"wutag_iregexp": func(pattern, s string) (bool, error) {
						return matchRegex(pattern, s, true)
					},
					"wutag_glob":  func(pattern, s string) (bool, error) { return matchGlob(pattern, s, false) },
					"wutag_iglob": func(pattern, s string) (bool, error) { return matchGlob(pattern, s, true) },
					"wutag_pcre":  func(pattern, s string) (bool, error) { return matchPCRE(pattern, s, false) },
					"wutag_ipcre": func(pattern, s string) (bool, error) { return matchPCRE(pattern, s, true) },
				}
				for name, fn := range fns {
					if err := conn.RegisterFunc(name, fn, true); err != nil {
						return err
					}
				}
				return nil
			},
		})
	})
}
