// speaker.go — модель докладчика из статического реестра speakers.toml.
package model

// Speaker — учётная запись докладчика. Реестр докладчиков статический:
// загружается из speakers.toml при старте и не меняется в рантайме.
type Speaker struct {
	// ID — стабильный идентификатор докладчика (sub в JWT)
	ID string `toml:"id" json:"id"`

	// Username — логин для входа, уникален в пределах реестра
	Username string `toml:"username" json:"username"`

	// DisplayName — отображаемое имя докладчика
	DisplayName string `toml:"display_name" json:"display_name"`

	// PasswordHash — bcrypt-хэш пароля. Никогда не отдаётся в API.
	PasswordHash string `toml:"password_hash" json:"-"`
}
