package dom

import "testing"

func TestObserver(t *testing.T) {
	doc := mustParse(t, `<div id="outer"><p id="inner"></p></div><div id="sibling"></div>`)
	body := doc.Body()

	var got []Record
	obs := doc.Observe(body, ObserveOptions{
		ChildList:       true,
		Subtree:         true,
		Attributes:      true,
		AttributeFilter: []string{"style", "class"},
	}, func(records []Record) {
		got = append(got, records...)
	})

	inner := doc.GetElementByID("inner")
	inner.SetAttr("style", "color: red")
	inner.SetAttr("style", "color: red") // unchanged, no record
	inner.SetAttr("title", "ignored")
	inner.AppendChild(doc.CreateElement("img"))

	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].Type != RecordAttributes || got[0].AttributeName != "style" || got[0].Target != inner {
		t.Errorf("record 0 = %+v", got[0])
	}
	if got[1].Type != RecordChildList || len(got[1].Added) != 1 || got[1].Added[0].Tag() != "img" {
		t.Errorf("record 1 = %+v", got[1])
	}

	obs.Disconnect()
	obs.Disconnect()
	inner.SetAttr("class", "x")
	if len(got) != 2 {
		t.Errorf("record delivered after Disconnect")
	}
	if obs.Connected() {
		t.Error("Connected() = true after Disconnect")
	}
}

func TestObserverWithoutSubtree(t *testing.T) {
	doc := mustParse(t, `<div id="outer"><p id="inner"></p></div>`)
	outer := doc.GetElementByID("outer")

	count := 0
	doc.Observe(outer, ObserveOptions{Attributes: true}, func(records []Record) {
		count += len(records)
	})

	doc.GetElementByID("inner").SetAttr("class", "x")
	outer.SetAttr("class", "y")

	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}
