// compileinfoprint is imported by every microbiogeo tool for the side effect
// of printing its build description to os.Stderr at startup.
package compileinfoprint

import "github.com/carbocation/microbiogeo/compileinfo"

func init() {
	compileinfo.PrintToStdErr()
}
