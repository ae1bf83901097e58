package models

import "time"

func (c *Community) DeletedTime() *time.Time { return c.DeletedAt }

func (c *Community) MarkDeleted(at time.Time, by string) {
	c.DeletedAt = &at
	c.DeletedBy = &by
}

func (c *Community) ClearDeleted() {
	c.DeletedAt = nil
	c.DeletedBy = nil
}

func (p *Post) DeletedTime() *time.Time { return p.DeletedAt }

func (p *Post) MarkDeleted(at time.Time, by string) {
	p.DeletedAt = &at
	p.DeletedBy = &by
}

func (p *Post) ClearDeleted() {
	p.DeletedAt = nil
	p.DeletedBy = nil
}

func (c *Comment) DeletedTime() *time.Time { return c.DeletedAt }

func (c *Comment) MarkDeleted(at time.Time, by string) {
	c.DeletedAt = &at
	c.DeletedBy = &by
}

func (c *Comment) ClearDeleted() {
	c.DeletedAt = nil
	c.DeletedBy = nil
}

func (c *Comment) MaskContent(placeholder string) {
	c.Content = placeholder
}
