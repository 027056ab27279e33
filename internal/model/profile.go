package model

import (
	"time"
)

type Profile struct {
	ProfileId  string           `bson:"profileId" json:"profileId"`
	ExternalId string           `bson:"externalId" json:"-"`
	Admin      bool             `bson:"admin" json:"admin"`
	Name       string           `bson:"name" json:"name"`
	UpdatedOn  time.Time        `bson:"updatedOn" json:"updatedOn"`
	LastActive time.Time        `bson:"lastActive" json:"lastActive"`
	Images     []ImageReference `bson:"images" json:"images"`
}

type ImageReference struct {
	ImageId  string `bson:"imageId" json:"imageId"`
	FileName string `bson:"fileName" json:"fileName"`
	Title    string `bson:"title,omitempty" json:"title,omitempty"`
}

// FindImage returns the reference with the given image id, or nil.
func (p *Profile) FindImage(imageId string) *ImageReference {
	for i := range p.Images {
		if p.Images[i].ImageId == imageId {
			return &p.Images[i]
		}
	}
	return nil
}

// HasFileName reports whether the profile references a blob with this name.
func (p *Profile) HasFileName(fileName string) bool {
	for i := range p.Images {
		if p.Images[i].FileName == fileName {
			return true
		}
	}
	return false
}
