// speaker.go — команды управления реестром докладчиков (speakers.toml).
package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/arturkryukov/confshare/internal/domain/model"
)

// minHashCost — минимально допустимая стоимость bcrypt для паролей
// докладчиков.
const minHashCost = 10

var (
	speakersFile string
	hashCost     int
	displayName  string
)

// readPassword — тестовая прослойка для term.ReadPassword.
var readPassword = term.ReadPassword

var speakerCmd = &cobra.Command{
	Use:   "speaker",
	Short: "Управление реестром докладчиков",
}

var speakerHashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Выдать bcrypt-хэш пароля для ручного редактирования реестра",
	Args:  cobra.NoArgs,
	RunE:  runSpeakerHash,
}

var speakerAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Добавить докладчика в реестр",
	Args:  cobra.ExactArgs(1),
	RunE:  runSpeakerAdd,
}

var speakerListCmd = &cobra.Command{
	Use:   "list",
	Short: "Показать докладчиков из реестра",
	Args:  cobra.NoArgs,
	RunE:  runSpeakerList,
}

func init() {
	speakerHashCmd.Flags().IntVar(&hashCost, "cost", 12, "стоимость bcrypt (минимум 10)")

	speakerAddCmd.Flags().StringVar(&speakersFile, "file", "speakers.toml", "путь к файлу реестра")
	speakerAddCmd.Flags().IntVar(&hashCost, "cost", 12, "стоимость bcrypt (минимум 10)")
	speakerAddCmd.Flags().StringVar(&displayName, "display-name", "", "отображаемое имя (по умолчанию username)")

	speakerListCmd.Flags().StringVar(&speakersFile, "file", "speakers.toml", "путь к файлу реестра")

	speakerCmd.AddCommand(speakerHashCmd, speakerAddCmd, speakerListCmd)
}

// promptPassword запрашивает пароль с подтверждением, без эха в терминал.
func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Пароль: ")
	password, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("ошибка чтения пароля: %w", err)
	}
	if len(password) == 0 {
		return "", errors.New("пароль не может быть пустым")
	}

	fmt.Fprint(os.Stderr, "Повторите пароль: ")
	confirm, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("ошибка чтения пароля: %w", err)
	}
	if !bytes.Equal(password, confirm) {
		return "", errors.New("пароли не совпадают")
	}

	return string(password), nil
}

// hashPassword запрашивает пароль и возвращает его bcrypt-хэш.
func hashPassword(cost int) (string, error) {
	if cost < minHashCost || cost > bcrypt.MaxCost {
		return "", fmt.Errorf("недопустимая стоимость bcrypt %d: допустимо от %d до %d",
			cost, minHashCost, bcrypt.MaxCost)
	}

	password, err := promptPassword()
	if err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("ошибка хэширования пароля: %w", err)
	}

	return string(hash), nil
}

func runSpeakerHash(cmd *cobra.Command, _ []string) error {
	hash, err := hashPassword(hashCost)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

// registryFile — структура speakers.toml: массив таблиц [[speakers]].
type registryFile struct {
	Speakers []model.Speaker `toml:"speakers"`
}

// loadRegistry читает реестр. Отсутствующий файл — пустой реестр.
func loadRegistry(path string) (*registryFile, error) {
	var reg registryFile
	if _, err := toml.DecodeFile(path, &reg); err != nil {
		if os.IsNotExist(err) {
			return &registryFile{}, nil
		}
		return nil, fmt.Errorf("ошибка чтения %s: %w", path, err)
	}
	return &reg, nil
}

// saveRegistry записывает реестр на диск. Файл содержит хэши паролей,
// поэтому права 0600.
func saveRegistry(path string, reg *registryFile) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(reg); err != nil {
		return fmt.Errorf("ошибка сериализации реестра: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("ошибка записи %s: %w", path, err)
	}
	return nil
}

func runSpeakerAdd(cmd *cobra.Command, args []string) error {
	username := args[0]

	reg, err := loadRegistry(speakersFile)
	if err != nil {
		return err
	}

	for _, sp := range reg.Speakers {
		if sp.Username == username {
			return fmt.Errorf("докладчик %q уже есть в реестре", username)
		}
	}

	hash, err := hashPassword(hashCost)
	if err != nil {
		return err
	}

	name := displayName
	if name == "" {
		name = username
	}

	reg.Speakers = append(reg.Speakers, model.Speaker{
		ID:           uuid.New().String(),
		Username:     username,
		DisplayName:  name,
		PasswordHash: hash,
	})

	if err := saveRegistry(speakersFile, reg); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Докладчик %q добавлен в %s\n", username, speakersFile)
	return nil
}

func runSpeakerList(cmd *cobra.Command, _ []string) error {
	reg, err := loadRegistry(speakersFile)
	if err != nil {
		return err
	}

	if len(reg.Speakers) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Реестр пуст")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "USERNAME\tDISPLAY NAME\tID")
	for _, sp := range reg.Speakers {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", sp.Username, sp.DisplayName, sp.ID)
	}
	return tw.Flush()
}
