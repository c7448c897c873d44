package gorm_v1

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestFormatVars(t *testing.T) {
	at := time.Unix(1700000000, 0)
	got := formatVars([]interface{}{
		"jinzhu", 18, 3.5, at,
		gorm.DeletedAt{},
		gorm.DeletedAt{Time: at, Valid: true},
		[]byte("blob"),
	})
	assert.Equal(t, "['jinzhu',18,3.5,1700000000,null,1700000000,'?']", got)
}
