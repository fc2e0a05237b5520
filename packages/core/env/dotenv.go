package env

import (
	"errors"
	"fmt"
	"os"

	"github.com/abdul-hamid-achik/rester/packages/core/errs"
	"github.com/spf13/afero"
	"github.com/subosito/gotenv"
)

// LoadDotEnv reads a .env file through fs. Values may reference earlier
// entries or the process environment as ${NAME}; single-quoted values are
// taken literally. Nothing is written to the process environment.
func LoadDotEnv(fs afero.Fs, path string) (map[string]string, error) {
	file, err := fs.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errs.FileNotFound(path, err)
		}
		return nil, fmt.Errorf("cannot open env file: %w", err)
	}
	defer file.Close()

	parsed, err := gotenv.StrictParse(file)
	if err != nil {
		return nil, errs.Decoding(fmt.Sprintf("env file %s", path), err)
	}
	return map[string]string(parsed), nil
}
